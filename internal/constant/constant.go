package constant

const (
	DefaultIndexFile    = "SET.def"
	DefaultCategoryFile = "box.def"
	DefaultConfigFile   = "dtxorg.json"
	ChartExt            = ".dtx"
)

// Property names shared by every property-text file.
const (
	PropTitle       = "#TITLE"
	PropArtist      = "#ARTIST"
	PropComment     = "#COMMENT"
	PropLevel       = "#DLEVEL"
	PropBpm         = "#BPM"
	PropPreview     = "#PREVIEW"
	PropPreImage    = "#PREIMAGE"
	PropResultImage = "#RESULTIMAGE"
	PropFontColor   = "#FONTCOLOR"
)

// SlotLabels are the difficulty slots of an index file, lowest first.
var SlotLabels = []string{"BASIC", "ADVANCED", "EXTREME", "MASTER"}

// SlotThresholds holds the level above which a chart belongs at least one slot higher.
var SlotThresholds = []float64{4.0, 6.0, 7.5}
