package brackets

// Rendering-independent geometry for a generated bracket: absolute card
// positions plus the polyline connectors between a match and the feeder slot
// of its successor. All values are in abstract pixels; the frontend applies
// its own scaling.

const (
	CardWidth       = 220.0
	CardBaseHeight  = 76.0
	MemberRowHeight = 24.0
	ColumnGutter    = 64.0
	SlotGap         = 28.0
	ChampionStem    = 48.0
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type CardPosition struct {
	MatchID string  `json:"match_id"`
	Round   int     `json:"round"`
	Index   int     `json:"index"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

// Connector is the 3-segment polyline (horizontal out, vertical, horizontal
// in) from a match card's right edge to its successor's left edge.
type Connector struct {
	FromMatch string  `json:"from_match"`
	ToMatch   string  `json:"to_match"`
	Points    []Point `json:"points"`
}

// ChampionMarker is drawn to the right of the final match once it is decided.
type ChampionMarker struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Label string  `json:"label"`
}

type Layout struct {
	Cards      []CardPosition  `json:"cards"`
	Connectors []Connector     `json:"connectors"`
	Champion   *ChampionMarker `json:"champion,omitempty"`
	Width      float64         `json:"width"`
	Height     float64         `json:"height"`
}

// ComputeLayout positions every match card of a generated bracket. teamSize
// is the event's team size (1 for solo events); memberCounts maps team IDs to
// the number of member rows their card shows, capped at teamSize.
//
// Cards occupy uniform vertical slots sized for the tallest possible card, so
// columns stay aligned even though individual card heights vary with roster
// size: round-0 centers sit at fixed slot intervals and every later match is
// centered over the midpoint of its two feeders. The function is total over
// any bracket satisfying the structural invariants; callers must check
// Generated first.
func ComputeLayout(b *Bracket, teamSize int, memberCounts map[string]int) *Layout {
	if b == nil || !b.Generated || len(b.Rounds) == 0 {
		return &Layout{Cards: []CardPosition{}, Connectors: []Connector{}}
	}

	maxCard := CardBaseHeight
	if teamSize > 1 {
		maxCard += float64(maxMemberRows(teamSize, memberCounts)) * MemberRowHeight
	}
	slotHeight := maxCard + SlotGap

	numRounds := len(b.Rounds)
	cards := make([]CardPosition, 0, totalMatches(b))
	connectors := make([]Connector, 0, totalMatches(b)-1)

	// Vertical centers per round; round k>0 averages its feeder pair.
	centers := make([][]float64, numRounds)
	for r, round := range b.Rounds {
		centers[r] = make([]float64, len(round.Matches))
		for i := range round.Matches {
			if r == 0 {
				centers[0][i] = float64(i)*slotHeight + slotHeight/2
			} else {
				centers[r][i] = (centers[r-1][2*i] + centers[r-1][2*i+1]) / 2
			}
		}
	}

	for r, round := range b.Rounds {
		x := float64(r) * (CardWidth + ColumnGutter)
		for i := range round.Matches {
			match := &round.Matches[i]
			height := cardHeight(match, teamSize, memberCounts)
			cards = append(cards, CardPosition{
				MatchID: match.ID,
				Round:   r,
				Index:   i,
				X:       x,
				Y:       centers[r][i] - height/2,
				Width:   CardWidth,
				Height:  height,
			})

			if r == numRounds-1 {
				continue
			}
			successor := &b.Rounds[r+1].Matches[i/2]
			targetX := float64(r+1) * (CardWidth + ColumnGutter)
			midX := targetX - ColumnGutter/2
			connectors = append(connectors, Connector{
				FromMatch: match.ID,
				ToMatch:   successor.ID,
				Points: []Point{
					{X: x + CardWidth, Y: centers[r][i]},
					{X: midX, Y: centers[r][i]},
					{X: midX, Y: centers[r+1][i/2]},
					{X: targetX, Y: centers[r+1][i/2]},
				},
			})
		}
	}

	layout := &Layout{
		Cards:      cards,
		Connectors: connectors,
		Width:      float64(numRounds)*(CardWidth+ColumnGutter) - ColumnGutter,
		Height:     float64(len(b.Rounds[0].Matches)) * slotHeight,
	}

	if champion := b.Champion(); champion != nil {
		finalCenter := centers[numRounds-1][0]
		finalRight := float64(numRounds-1)*(CardWidth+ColumnGutter) + CardWidth
		layout.Champion = &ChampionMarker{
			X:     finalRight + ChampionStem,
			Y:     finalCenter,
			Label: champion.Name,
		}
		layout.Width = finalRight + ChampionStem
		layout.Connectors = append(layout.Connectors, Connector{
			FromMatch: b.FinalMatch().ID,
			Points: []Point{
				{X: finalRight, Y: finalCenter},
				{X: finalRight + ChampionStem, Y: finalCenter},
			},
		})
	}

	return layout
}

func cardHeight(m *Match, teamSize int, memberCounts map[string]int) float64 {
	if teamSize <= 1 {
		return CardBaseHeight
	}
	rows := 0
	for _, slot := range []Slot{m.Slot1, m.Slot2} {
		if slot.Kind != SlotResolved {
			continue
		}
		if n := clampRows(memberCounts[slot.TeamID], teamSize); n > rows {
			rows = n
		}
	}
	return CardBaseHeight + float64(rows)*MemberRowHeight
}

func maxMemberRows(teamSize int, memberCounts map[string]int) int {
	rows := 0
	for _, n := range memberCounts {
		if c := clampRows(n, teamSize); c > rows {
			rows = c
		}
	}
	return rows
}

func clampRows(n, teamSize int) int {
	if n < 0 {
		return 0
	}
	if n > teamSize {
		return teamSize
	}
	return n
}

func totalMatches(b *Bracket) int {
	total := 0
	for _, round := range b.Rounds {
		total += len(round.Matches)
	}
	return total
}
