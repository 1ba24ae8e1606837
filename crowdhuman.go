package cococonv

// CrowdHuman (.odgt) specific functionality.

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

const crowdHumanPersonTag = "person"

// crowdHumanCategories lists the COCO categories and the CrowdHuman box each one is read from, in
// the order their annotations are emitted.
var crowdHumanCategories = []struct {
	id   int
	name string
	box  string
}{
	{1, "person", "vbox"},      // Visible region.
	{2, "person_full", "fbox"}, // Full body, including occluded parts.
	{3, "head", "hbox"},
}

// CrowdHumanBox is a tagged object in a CrowdHuman record. All boxes are x, y, width, height.
type CrowdHumanBox struct {
	Tag  *string  `json:"tag"`
	VBox []Number `json:"vbox"`
	FBox []Number `json:"fbox"`
	HBox []Number `json:"hbox"`
}

// box returns the box stored under the CrowdHuman field name key.
func (b CrowdHumanBox) box(key string) []Number {
	switch key {
	case "vbox":
		return b.VBox
	case "fbox":
		return b.FBox
	case "hbox":
		return b.HBox
	}
	return nil
}

// CrowdHumanRecord is one line of a CrowdHuman annotation file and describes a single image.
type CrowdHumanRecord struct {
	ID      interface{}     `json:"ID"` // Image file name without the .jpg extension.
	GTBoxes []CrowdHumanBox `json:"gtboxes"`
}

// fileName returns the name of the image file described by r.
func (r CrowdHumanRecord) fileName() (string, error) {
	switch id := r.ID.(type) {
	case nil:
		return "", missingKey("record", "ID")
	case string:
		return id + ".jpg", nil
	case json.Number:
		n, err := ParseNumber(id.String())
		if err != nil {
			return "", err
		}
		return n.String() + ".jpg", nil
	default:
		return fmt.Sprint(id) + ".jpg", nil
	}
}

// ReadCrowdHuman reads the CrowdHuman records from the file at path, one JSON object per line.
// Blank lines are skipped.
func ReadCrowdHuman(path string) ([]CrowdHumanRecord, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}

	records := make([]CrowdHumanRecord, 0, len(lines))
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var r CrowdHumanRecord
		if err := jsonCodec.UnmarshalFromString(line, &r); err != nil {
			return nil, fmt.Errorf("%w: invalid JSON on line %d of %q: %v", ErrParse, i+1, path, err)
		}
		records = append(records, r)
	}

	return records, nil
}

// CrowdHumanToCOCO converts the records to a COCO document. The images are expected in imageDir
// and size is used to obtain their dimensions. Images are numbered from 1 in record order; only
// objects tagged "person" are converted, each into one annotation per category.
func CrowdHumanToCOCO(records []CrowdHumanRecord, imageDir string, size ImageSizeFunc) (
	*Document, error) {

	doc := newDocument(newInfo(2018, "CrowdHuman", "Shao et al.", "https://www.crowdhuman.org/"))
	for _, c := range crowdHumanCategories {
		doc.Categories = append(doc.Categories, Object{
			"id":            Int(int64(c.id)),
			"name":          c.name,
			"supercategory": crowdHumanPersonTag,
		})
	}

	for i, r := range records {
		fileName, err := r.fileName()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		width, height, err := size(filepath.Join(imageDir, fileName))
		if err != nil {
			return nil, err
		}

		imageID := Int(int64(len(doc.Images) + 1))
		doc.Images = append(doc.Images, Image{
			ID:       imageID,
			Width:    Int(int64(width)),
			Height:   Int(int64(height)),
			FileName: fileName,
		})

		if r.GTBoxes == nil {
			return nil, fmt.Errorf("record %d: %w", i+1, missingKey(fileName, "gtboxes"))
		}
		for j, b := range r.GTBoxes {
			if b.Tag == nil {
				return nil, fmt.Errorf("record %d, box %d: %w", i+1, j, missingKey(fileName, "tag"))
			}
			if *b.Tag != crowdHumanPersonTag {
				continue
			}

			for _, c := range crowdHumanCategories {
				box := b.box(c.box)
				if len(box) < 4 {
					return nil, fmt.Errorf("record %d, box %d: %w", i+1, j,
						missingKey(fileName, c.box))
				}
				doc.Annotations = appendAnnotation(doc.Annotations, imageID, c.id, BBox(box))
			}
		}
	}

	return doc, nil
}

// ConvertCrowdHuman converts the CrowdHuman annotations in inputPath to a COCO document written
// to outputPath. The annotated images must be in imageDir, named after the record IDs.
func ConvertCrowdHuman(inputPath, outputPath, imageDir string) error {
	records, err := ReadCrowdHuman(inputPath)
	if err != nil {
		return err
	}
	log.Printf("Parsing CrowdHuman labels for %d files", len(records))

	doc, err := CrowdHumanToCOCO(records, imageDir, imageSize)
	if err != nil {
		return fmt.Errorf("failed to convert %q: %w", inputPath, err)
	}
	if err := WriteDocument(outputPath, doc); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"images":      len(doc.Images),
		"annotations": len(doc.Annotations),
	}).Infof("Wrote COCO labels to %s", outputPath)
	return nil
}
