package cococonv

// The COCO annotation document that all converters produce.

import (
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// jsonCodec reads numbers as json.Number so that they convert to Number without loss. It writes
// non-ASCII and HTML characters unescaped.
var jsonCodec = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// now returns the time stamped into Info.DateCreated.
var now = time.Now

// Info is the descriptive header of a COCO document.
type Info struct {
	Year        int    `json:"year"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Contributor string `json:"contributor"`
	URL         string `json:"url"`
	DateCreated string `json:"date_created"`
}

// newInfo returns the Info for a dataset, dated today.
func newInfo(year int, description, contributor, url string) Info {
	return Info{
		Year:        year,
		Version:     "1.0",
		Description: description,
		Contributor: contributor,
		URL:         url,
		DateCreated: now().Format("2006/01/02"),
	}
}

// Image is a COCO image record. The metadata fields are nil unless they were taken from a COCO
// metadata file.
type Image struct {
	ID           Number      `json:"id"`
	Width        Number      `json:"width"`
	Height       Number      `json:"height"`
	FileName     string      `json:"file_name"`
	License      interface{} `json:"license"`
	FlickrURL    interface{} `json:"flickr_url"`
	COCOURL      interface{} `json:"coco_url"`
	DateCaptured interface{} `json:"date_captured"`

	// Source is the metadata record the image was read from. If set, it is written in place of the
	// fields above, including any keys they do not cover.
	Source Object `json:"-"`
}

// MarshalJSON writes img.Source if it is set and the image fields otherwise.
func (img Image) MarshalJSON() ([]byte, error) {
	if img.Source != nil {
		return jsonCodec.Marshal(img.Source)
	}
	type fields Image
	return jsonCodec.Marshal(fields(img))
}

// BBox is an axis-aligned bounding box: x, y, width, height.
type BBox []Number

// bboxFromCorners converts the corners (x1,y1) and (x2,y2) to a BBox.
func bboxFromCorners(x1, y1, x2, y2 Number) BBox {
	return BBox{x1, y1, x2.Sub(x1), y2.Sub(y1)}
}

// Width is the box width.
func (b BBox) Width() Number {
	return b[2]
}

// Height is the box height.
func (b BBox) Height() Number {
	return b[3]
}

// Area is Width * Height.
func (b BBox) Area() Number {
	return b.Width().Mul(b.Height())
}

// Annotation is a COCO object annotation. Segmentation is always empty.
type Annotation struct {
	ID           int           `json:"id"`
	ImageID      Number        `json:"image_id"`
	CategoryID   int           `json:"category_id"`
	Segmentation []interface{} `json:"segmentation"`
	Area         Number        `json:"area"`
	BBox         BBox          `json:"bbox"`
	IsCrowd      int           `json:"iscrowd"`
}

// appendAnnotation appends an annotation for box to annotations. Its ID is the position in the
// output, starting at 1.
func appendAnnotation(annotations []Annotation, imageID Number, categoryID int,
	box BBox) []Annotation {

	return append(annotations, Annotation{
		ID:           len(annotations) + 1,
		ImageID:      imageID,
		CategoryID:   categoryID,
		Segmentation: []interface{}{},
		Area:         box.Area(),
		BBox:         box,
		IsCrowd:      0,
	})
}

// Document is a complete COCO annotation file.
type Document struct {
	Info        Info         `json:"info"`
	Images      []Image      `json:"images"`
	Annotations []Annotation `json:"annotations"`
	Categories  []Object     `json:"categories"`
	Licenses    []Object     `json:"licenses"`
}

// newDocument returns an empty document with non-nil lists, which encode as [] rather than null.
func newDocument(info Info) *Document {
	return &Document{
		Info:        info,
		Images:      []Image{},
		Annotations: []Annotation{},
		Categories:  []Object{},
		Licenses:    []Object{},
	}
}

// WriteDocument encodes doc and writes it to outFile. The file is replaced only once the whole
// document has been written.
func WriteDocument(outFile string, doc *Document) error {
	enc, err := jsonCodec.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode the COCO document: %w", err)
	}
	if err := writeFileAtomic(outFile, enc, 0644); err != nil {
		return fmt.Errorf("cannot write file %q: %w", outFile, err)
	}
	return nil
}
