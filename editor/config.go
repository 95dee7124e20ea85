// Package editor describes the configuration of the CKEditor 5 classic editor
// used to author template bodies. The browser resolves plugin names against
// the CKEditor build it loads.
package editor

type Color struct {
	Color     string `json:"color"`
	Label     string `json:"label"`
	HasBorder bool   `json:"hasBorder,omitempty"`
}

type ColorPicker struct {
	Format string `json:"format"`
}

type ColorConfig struct {
	Colors      []Color     `json:"colors"`
	ColorPicker ColorPicker `json:"colorPicker"`
}

type Toolbar struct {
	Items                  []string `json:"items"`
	ShouldNotGroupWhenFull bool     `json:"shouldNotGroupWhenFull"`
}

type FontFamily struct {
	SupportAllValues bool `json:"supportAllValues"`
}

type FontSize struct {
	// Options holds pixel sizes and the literal "default".
	Options          []interface{} `json:"options"`
	SupportAllValues bool          `json:"supportAllValues"`
}

// HtmlRule allows elements whose name matches the Name pattern.
type HtmlRule struct {
	Name       string `json:"name"`
	Styles     bool   `json:"styles"`
	Attributes bool   `json:"attributes"`
	Classes    bool   `json:"classes"`
}

type HtmlSupport struct {
	Allow []HtmlRule `json:"allow"`
}

type Image struct {
	Toolbar []string `json:"toolbar"`
}

type LinkDecorator struct {
	Mode       string            `json:"mode"`
	Label      string            `json:"label"`
	Attributes map[string]string `json:"attributes"`
}

type Link struct {
	AddTargetToExternalLinks bool                     `json:"addTargetToExternalLinks"`
	DefaultProtocol          string                   `json:"defaultProtocol"`
	Decorators               map[string]LinkDecorator `json:"decorators"`
}

type ListProperties struct {
	Styles     bool `json:"styles"`
	StartIndex bool `json:"startIndex"`
	Reversed   bool `json:"reversed"`
}

type List struct {
	Properties ListProperties `json:"properties"`
}

type Table struct {
	ContentToolbar []string `json:"contentToolbar"`
}

type Config struct {
	Toolbar             Toolbar     `json:"toolbar"`
	Plugins             []string    `json:"plugins"`
	BalloonToolbar      []string    `json:"balloonToolbar"`
	FontFamily          FontFamily  `json:"fontFamily"`
	FontSize            FontSize    `json:"fontSize"`
	FontColor           ColorConfig `json:"fontColor"`
	FontBackgroundColor ColorConfig `json:"fontBackgroundColor"`
	HtmlSupport         HtmlSupport `json:"htmlSupport"`
	Image               Image       `json:"image"`
	Link                Link        `json:"link"`
	List                List        `json:"list"`
	Placeholder         string      `json:"placeholder"`
	Table               Table       `json:"table"`
}

var presetColors = []Color{
	{Color: "#000000", Label: "Black"},
	{Color: "#4d4d4d", Label: "Dim grey"},
	{Color: "#999999", Label: "Grey"},
	{Color: "#E6E6E6", Label: "Light grey"},
	{Color: "#FFFFFF", Label: "White", HasBorder: true},
	{Color: "#E64C4C", Label: "Red"},
	{Color: "#E6994C", Label: "Orange"},
	{Color: "#E6E64C", Label: "Yellow"},
	{Color: "#99E64C", Label: "Light green"},
	{Color: "#4CE64C", Label: "Green"},
	{Color: "#4CE699", Label: "Aquamarine"},
	{Color: "#4CE6E6", Label: "Turquoise"},
	{Color: "#4C99E6", Label: "Light blue"},
	{Color: "#4C4CE6", Label: "Blue"},
	{Color: "#994CE6", Label: "Purple"},
}

var plugins = []string{
	"Alignment", "Autoformat", "AutoImage", "Autosave", "BalloonToolbar",
	"Bold", "Essentials", "FontBackgroundColor", "FontColor", "FontFamily",
	"FontSize", "GeneralHtmlSupport", "HorizontalLine", "ImageBlock",
	"ImageCaption", "ImageInline", "ImageInsert", "ImageInsertViaUrl",
	"ImageResize", "ImageStyle", "ImageTextAlternative", "ImageToolbar",
	"ImageUpload", "Indent", "IndentBlock", "Italic", "Link", "LinkImage",
	"List", "ListProperties", "MediaEmbed", "Paragraph", "PasteFromOffice",
	"SelectAll", "ShowBlocks", "SpecialCharacters", "SpecialCharactersArrows",
	"SpecialCharactersCurrency", "SpecialCharactersEssentials",
	"SpecialCharactersLatin", "SpecialCharactersMathematical",
	"SpecialCharactersText", "Strikethrough", "Subscript", "Superscript",
	"Table", "TableCaption", "TableCellProperties", "TableColumnResize",
	"TableProperties", "TableToolbar", "TextTransformation", "TodoList",
	"Underline", "Undo",
}

// DefaultConfig returns a fresh configuration; callers may modify it freely.
func DefaultConfig() Config {
	return Config{
		Toolbar: Toolbar{
			Items: []string{
				"undo", "redo",
				"|", "showBlocks", "selectAll",
				"|", "fontSize", "fontFamily", "fontColor", "fontBackgroundColor",
				"|", "bold", "italic", "underline", "strikethrough", "subscript", "superscript",
				"|", "specialCharacters", "horizontalLine", "link", "insertImage", "mediaEmbed", "insertTable",
				"|", "alignment",
				"|", "bulletedList", "numberedList", "todoList", "outdent", "indent",
			},
			ShouldNotGroupWhenFull: true,
		},
		Plugins:        append([]string(nil), plugins...),
		BalloonToolbar: []string{"bold", "italic", "underline", "|", "link", "|", "fontColor", "fontBackgroundColor"},
		FontFamily:     FontFamily{SupportAllValues: true},
		FontSize: FontSize{
			Options:          []interface{}{10, 12, 14, "default", 18, 20, 22},
			SupportAllValues: true,
		},
		FontColor:           colorConfig(),
		FontBackgroundColor: colorConfig(),
		HtmlSupport: HtmlSupport{
			Allow: []HtmlRule{
				{Name: "^.*$", Styles: true, Attributes: true, Classes: true},
			},
		},
		Image: Image{
			Toolbar: []string{
				"toggleImageCaption", "imageTextAlternative",
				"|", "imageStyle:inline", "imageStyle:wrapText", "imageStyle:breakText",
				"|", "resizeImage",
			},
		},
		Link: Link{
			AddTargetToExternalLinks: true,
			DefaultProtocol:          "https://",
			Decorators: map[string]LinkDecorator{
				"toggleDownloadable": {
					Mode:       "manual",
					Label:      "Downloadable",
					Attributes: map[string]string{"download": "file"},
				},
			},
		},
		List: List{
			Properties: ListProperties{Styles: true, StartIndex: true, Reversed: true},
		},
		Table: Table{
			ContentToolbar: []string{"tableColumn", "tableRow", "mergeTableCells", "tableProperties", "tableCellProperties"},
		},
	}
}

func colorConfig() ColorConfig {
	return ColorConfig{
		Colors:      append([]Color(nil), presetColors...),
		ColorPicker: ColorPicker{Format: "hex"},
	}
}
