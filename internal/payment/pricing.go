package payment

import (
	"fmt"

	"github.com/CampusTransit/CT-Backend/internal/session"
)

// BusClass is the service tier a student books.
type BusClass string

const (
	BusClassNonAC BusClass = "non_ac"
	BusClassAC    BusClass = "ac"
)

// Fare is the semester transport fee. Teachers pay a flat rate; students
// pay by bus class. Pure data, evaluated fresh every time the payment step
// is entered. Privileged roles never reach a payment screen.
func Fare(role session.Role, class BusClass) (int, error) {
	switch role {
	case session.RoleTeacher:
		return 1000, nil
	case session.RoleStudent:
		switch class {
		case BusClassNonAC:
			return 600, nil
		case BusClassAC:
			return 800, nil
		default:
			return 0, fmt.Errorf("unknown bus class %q", class)
		}
	default:
		return 0, fmt.Errorf("role %q has no fare", role)
	}
}
