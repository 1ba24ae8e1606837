package cococonv

// COCO Human Parts specific functionality.

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Each annotation carries hierSlots part boxes in its "hier" field, hierSlotSize values each:
// x1, y1, x2, y2 and a presence flag.
const (
	hierSlots    = 6
	hierSlotSize = 5
)

// Category IDs of the main box and of the first part box; part i has humanPartsFirstPart+i.
const (
	humanPartsPerson    = 1
	humanPartsFirstPart = 2
)

// HumanPartsImage is an image record in a COCO Human Parts file.
type HumanPartsImage struct {
	ID       *Number `json:"id"`
	Width    *Number `json:"width"`
	Height   *Number `json:"height"`
	FileName *string `json:"file_name"`
}

// HumanPartsAnnotation is a person annotation with its part boxes.
type HumanPartsAnnotation struct {
	ImageID *Number  `json:"image_id"`
	BBox    []Number `json:"bbox"` // x, y, width, height
	Hier    []Number `json:"hier"` // hierSlots groups of x1, y1, x2, y2, present
}

// HumanPartsDataset is the content of a COCO Human Parts annotation file.
type HumanPartsDataset struct {
	Images      []HumanPartsImage      `json:"images"`
	Annotations []HumanPartsAnnotation `json:"annotations"`
	Categories  []Object               `json:"categories"`
}

// ReadHumanParts reads and parses the COCO Human Parts annotations from the file at path.
func ReadHumanParts(path string) (*HumanPartsDataset, error) {
	var data HumanPartsDataset
	if err := readJSON(path, &data); err != nil {
		return nil, err
	}

	switch {
	case data.Images == nil:
		return nil, missingKey(path, "images")
	case data.Annotations == nil:
		return nil, missingKey(path, "annotations")
	case data.Categories == nil:
		return nil, missingKey(path, "categories")
	}
	if err := normalizeObjects(data.Categories); err != nil {
		return nil, fmt.Errorf("categories in %q: %w", path, err)
	}

	return &data, nil
}

// HumanPartsToCOCO converts the dataset to a COCO document.
//
// Without metadata the images are copied from the dataset and keep their IDs. With metadata the
// images and licenses are taken from the metadata, and every image ID is replaced by the number in
// the image's file name.
func HumanPartsToCOCO(data *HumanPartsDataset, meta *Metadata) (*Document, error) {
	doc := newDocument(newInfo(2020, "COCO Human Parts Dataset", "COCO Consortium, Yang et al.",
		"https://doi.org/10.1109/tip.2020.3029901"))

	var imageIDs map[Number]Number
	var err error
	if meta == nil {
		doc.Images, imageIDs, err = humanPartsImages(data.Images)
	} else {
		doc.Images, imageIDs, err = meta.resolveImages(data.Images)
		doc.Licenses = meta.Licenses
	}
	if err != nil {
		return nil, err
	}

	for i, a := range data.Annotations {
		doc.Annotations, err = appendHumanPartsAnnotations(doc.Annotations, a, imageIDs)
		if err != nil {
			return nil, fmt.Errorf("annotation %d: %w", i, err)
		}
	}

	doc.Categories = data.Categories

	return doc, nil
}

// humanPartsImages converts the dataset images to COCO images with empty metadata. The returned
// ID mapping is the identity.
func humanPartsImages(srcImages []HumanPartsImage) ([]Image, map[Number]Number, error) {
	images := make([]Image, 0, len(srcImages))
	imageIDs := make(map[Number]Number, len(srcImages))
	for i, src := range srcImages {
		where := fmt.Sprintf("image %d", i)
		switch {
		case src.ID == nil:
			return nil, nil, missingKey(where, "id")
		case src.Width == nil:
			return nil, nil, missingKey(where, "width")
		case src.Height == nil:
			return nil, nil, missingKey(where, "height")
		case src.FileName == nil:
			return nil, nil, missingKey(where, "file_name")
		}

		images = append(images, Image{
			ID:       *src.ID,
			Width:    *src.Width,
			Height:   *src.Height,
			FileName: *src.FileName,
		})
		imageIDs[*src.ID] = *src.ID
	}

	return images, imageIDs, nil
}

// appendHumanPartsAnnotations appends the person box of a and each of its present part boxes to
// annotations. Absent parts are skipped.
func appendHumanPartsAnnotations(annotations []Annotation, a HumanPartsAnnotation,
	imageIDs map[Number]Number) ([]Annotation, error) {

	switch {
	case a.ImageID == nil:
		return nil, missingKey("annotation", "image_id")
	case a.BBox == nil:
		return nil, missingKey("annotation", "bbox")
	case a.Hier == nil:
		return nil, missingKey("annotation", "hier")
	case len(a.BBox) < 4:
		return nil, fmt.Errorf("%w: bbox has %d values, need 4", ErrKeyNotFound, len(a.BBox))
	case len(a.Hier) < hierSlots*hierSlotSize:
		return nil, fmt.Errorf("%w: hier has %d values, need %d", ErrKeyNotFound, len(a.Hier),
			hierSlots*hierSlotSize)
	}

	imageID, ok := imageIDs[*a.ImageID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown image id %v", ErrKeyNotFound, *a.ImageID)
	}

	person := BBox{a.BBox[0], a.BBox[1], a.BBox[2], a.BBox[3]}
	annotations = appendAnnotation(annotations, imageID, humanPartsPerson, person)

	for i := 0; i < hierSlots; i++ {
		h := a.Hier[i*hierSlotSize : (i+1)*hierSlotSize]
		if h[4].IsZero() {
			continue
		}
		box := bboxFromCorners(h[0], h[1], h[2], h[3])
		annotations = appendAnnotation(annotations, imageID, humanPartsFirstPart+i, box)
	}

	return annotations, nil
}

// ConvertHumanParts converts the COCO Human Parts annotations in inputPath to a COCO document
// written to outputPath. If metadataPath is not empty, it names a COCO annotation file that
// supplies the image records and licenses.
func ConvertHumanParts(inputPath, outputPath, metadataPath string) error {
	log.Printf("Parsing COCO Human Parts labels from %q", inputPath)
	data, err := ReadHumanParts(inputPath)
	if err != nil {
		return err
	}

	var meta *Metadata
	if metadataPath != "" {
		log.Printf("Reading image metadata from %q", metadataPath)
		if meta, err = ReadMetadata(metadataPath); err != nil {
			return err
		}
	}

	doc, err := HumanPartsToCOCO(data, meta)
	if err != nil {
		return fmt.Errorf("failed to convert %q: %w", inputPath, err)
	}
	if err := WriteDocument(outputPath, doc); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"images":      len(doc.Images),
		"annotations": len(doc.Annotations),
		"categories":  len(doc.Categories),
	}).Infof("Wrote COCO labels to %s", outputPath)
	return nil
}
