package session

// ClickTarget is the part of a table row that received a click.
type ClickTarget string

const (
	TargetRow      ClickTarget = "row"
	TargetFavorite ClickTarget = "favorite"
)

// Table dispatches row clicks. A click on the favorite control is consumed by the
// control and never reaches the row.
type Table struct {
	OnOpenDetails    func(id int64)
	OnToggleFavorite func(id int64)
}

func (t Table) Click(id int64, target ClickTarget) {
	if target == TargetFavorite {
		if t.OnToggleFavorite != nil {
			t.OnToggleFavorite(id)
		}
		return
	}
	if t.OnOpenDetails != nil {
		t.OnOpenDetails(id)
	}
}
