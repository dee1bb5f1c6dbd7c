package integration_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fynwin/zgrid"
	"github.com/fynwin/zgrid/codec"
	"github.com/fynwin/zgrid/grid"
	"github.com/fynwin/zgrid/testutil"
)

// TestFullLifecycle drives a populated grid through churn, a snapshot
// round trip, and more churn on the restored instance, for both store
// variants.
func TestFullLifecycle(t *testing.T) {
	stores := map[string]zgrid.StoreType{
		"Linked": zgrid.StoreLinked,
		"Dense":  zgrid.StoreDense,
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			g, err := zgrid.New[int](
				zgrid.WithStore(store),
				zgrid.WithCellSize(16),
			)
			require.NoError(t, err)

			rng := testutil.NewRNG(7)
			ref := testutil.NewNaive[int](16)

			type live struct {
				gh, nh grid.Handle
				bounds grid.Bounds
			}
			var elems []live

			churn := func(g grid.Index[int], steps int) {
				for i := 0; i < steps; i++ {
					switch op := rng.Intn(10); {
					case op < 5 || len(elems) == 0:
						b := rng.Bounds(1500, 50)
						elems = append(elems, live{
							gh:     g.Insert(i, b),
							nh:     ref.Insert(i, b),
							bounds: b,
						})
					case op < 7:
						j := rng.Intn(len(elems))
						g.Remove(elems[j].gh, elems[j].bounds)
						ref.Remove(elems[j].nh)
						elems[j] = elems[len(elems)-1]
						elems = elems[:len(elems)-1]
					default:
						j := rng.Intn(len(elems))
						b := rng.Bounds(1500, 50)
						g.Update(elems[j].gh, elems[j].bounds, b)
						ref.Update(elems[j].nh, b)
						elems[j].bounds = b
					}
				}
			}

			verify := func(g grid.Index[int]) {
				t.Helper()
				require.Equal(t, ref.Len(), g.Len())
				for i := 0; i < 32; i++ {
					q := rng.Bounds(1500, 200)
					assert.ElementsMatch(t, ref.Query(q), g.Query(q, nil), "query %+v", q)
				}
			}

			churn(g, 500)
			verify(g)

			var buf bytes.Buffer
			require.NoError(t, zgrid.Save(&buf, g.(grid.Snapshotter), zgrid.WithCodec(codec.LZ4{})))

			restored, err := zgrid.New[int](zgrid.WithStore(store))
			require.NoError(t, err)
			require.NoError(t, zgrid.Load(&buf, restored.(grid.Snapshotter)))
			verify(restored)

			// The restored grid accepts further churn; handles allocated
			// before the snapshot stay valid.
			churn(restored, 500)
			verify(restored)
		})
	}
}
