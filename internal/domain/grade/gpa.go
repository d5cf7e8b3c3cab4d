package grade

// Scale selects the GPA conversion variant. The conversion is a pure step
// function of the 0-100 average with no side effects.
type Scale string

const (
	// ScaleStandard is the coarse five-step scale:
	//
	//	>=90 -> 4.0
	//	>=80 -> 3.0
	//	>=70 -> 2.0
	//	>=60 -> 1.0
	//	 <60 -> 0.0
	ScaleStandard Scale = "standard"

	// ScaleFine is the plus/minus scale:
	//
	//	>=93 -> 4.0    >=80 -> 2.7    >=67 -> 1.3
	//	>=90 -> 3.7    >=77 -> 2.3    >=60 -> 1.0
	//	>=87 -> 3.3    >=73 -> 2.0     <60 -> 0.0
	//	>=83 -> 3.0    >=70 -> 1.7
	ScaleFine Scale = "fine"
)

// gpaStep is one band of a step scale: averages at or above Min convert to GPA.
type gpaStep struct {
	Min float64
	GPA float64
}

// Bands are ordered high to low; conversion takes the first matching band.
var gpaTables = map[Scale][]gpaStep{
	ScaleStandard: {
		{90, 4.0},
		{80, 3.0},
		{70, 2.0},
		{60, 1.0},
	},
	ScaleFine: {
		{93, 4.0},
		{90, 3.7},
		{87, 3.3},
		{83, 3.0},
		{80, 2.7},
		{77, 2.3},
		{73, 2.0},
		{70, 1.7},
		{67, 1.3},
		{60, 1.0},
	},
}

// IsValid reports whether the scale is known.
func (s Scale) IsValid() bool {
	_, ok := gpaTables[s]
	return ok
}

// GPA converts an overall average to the scale's GPA value. Unknown scales
// fall back to ScaleStandard so the conversion is total.
func (s Scale) GPA(average float64) float64 {
	table, ok := gpaTables[s]
	if !ok {
		table = gpaTables[ScaleStandard]
	}
	for _, step := range table {
		if average >= step.Min {
			return step.GPA
		}
	}
	return 0.0
}
