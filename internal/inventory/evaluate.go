package inventory

import "github.com/eugenenazirov/stock-keeper/internal/marketplace"

// Decision is the result of comparing an item's stock against the floor.
type Decision struct {
	Current int
	Target  int
	Restock bool
}

// Evaluate decides whether item needs restocking. Stock equal to the floor is left alone;
// only stock strictly below it is raised, and always to exactly the floor.
func Evaluate(item marketplace.Item, floor int) Decision {
	if item.MaximumBuyCount < floor {
		return Decision{Current: item.MaximumBuyCount, Target: floor, Restock: true}
	}
	return Decision{Current: item.MaximumBuyCount, Target: item.MaximumBuyCount}
}
