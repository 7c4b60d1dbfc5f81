// README: Courier position sample tied to an order.
package tracking

import (
	"time"

	"github.com/Salah-eem/ei-resto-commande-sub001/internal/types"
)

type Sample struct {
	Position   types.Point `json:"position"`
	RecordedAt time.Time   `json:"recorded_at"`
}
