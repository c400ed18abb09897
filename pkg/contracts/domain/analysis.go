package domain

// ColorScale names the palette a map column is rendered with
type ColorScale string

const (
	ColorScaleBlues ColorScale = "blues"
	ColorScaleReds  ColorScale = "reds"
	ColorScaleMint  ColorScale = "mint"
)

// ScaleFor returns the palette used for a map column
func ScaleFor(c Column) ColorScale {
	switch c {
	case ColumnPartyAShare:
		return ColorScaleBlues
	case ColumnPartyBShare:
		return ColorScaleReds
	default:
		return ColorScaleMint
	}
}

// MapPoint is one region on a choropleth
type MapPoint struct {
	Abbreviation string   `json:"abbreviation"`
	Name         string   `json:"name"`
	Value        *float64 `json:"value"`
}

// MapData is the input for a choropleth of a single column
type MapData struct {
	Column     Column     `json:"column"`
	Label      string     `json:"label"`
	ColorScale ColorScale `json:"color_scale"`
	Range      [2]float64 `json:"range"`
	Points     []MapPoint `json:"points"`
}

// ScatterPoint relates a party's share to a term's interest for one region
type ScatterPoint struct {
	Abbreviation string   `json:"abbreviation"`
	Name         string   `json:"name"`
	Share        float64  `json:"share"`
	Interest     *float64 `json:"interest"`
	Winner       Party    `json:"winner"`
}

// BoxGroup holds the non-null interest values of the regions won by one party
type BoxGroup struct {
	Winner Party     `json:"winner"`
	Values []float64 `json:"values"`
}

// ScatterData feeds both the scatter plot and the box plot of a party and term pair
type ScatterData struct {
	Party     Party          `json:"party"`
	Term      TermID         `json:"term_id"`
	TermLabel string         `json:"term_label"`
	Points    []ScatterPoint `json:"points"`
	BoxGroups []BoxGroup     `json:"box_groups"`
}

// Comparison is the outcome of a two-sample test between regions won by
// PartyA (group A) and regions won by PartyB (group B).
type Comparison struct {
	Term             TermID   `json:"term_id"`
	TermLabel        string   `json:"term_label"`
	Statistic        float64  `json:"statistic"`
	PValue           float64  `json:"p_value"`
	MeanGroupA       float64  `json:"mean_group_a"`
	MeanGroupB       float64  `json:"mean_group_b"`
	CountGroupA      int      `json:"count_group_a"`
	CountGroupB      int      `json:"count_group_b"`
	DegreesOfFreedom int      `json:"degrees_of_freedom"`
	Significant      bool     `json:"significant"`
	Conclusion       string   `json:"conclusion"`
	Summary          []string `json:"summary"`
}
