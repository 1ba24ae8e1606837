package cococonv

// Image metadata borrowed from an existing COCO annotation file.

import "fmt"

// Metadata holds the image records and licenses of a COCO annotation file.
type Metadata struct {
	Images   []Object `json:"images"`
	Licenses []Object `json:"licenses"`
}

// ReadMetadata reads the images and licenses of the COCO annotation file at path.
func ReadMetadata(path string) (*Metadata, error) {
	var meta Metadata
	if err := readJSON(path, &meta); err != nil {
		return nil, err
	}

	if meta.Images == nil {
		return nil, missingKey(path, "images")
	}
	if meta.Licenses == nil {
		return nil, missingKey(path, "licenses")
	}
	if err := normalizeObjects(meta.Images); err != nil {
		return nil, fmt.Errorf("images in %q: %w", path, err)
	}
	if err := normalizeObjects(meta.Licenses); err != nil {
		return nil, fmt.Errorf("licenses in %q: %w", path, err)
	}

	return &meta, nil
}

// resolveImages returns the metadata images and a mapping from the IDs of srcImages to metadata
// image IDs. A source image maps to the number in its file name, which must be the ID of one of
// the metadata images.
func (m *Metadata) resolveImages(srcImages []HumanPartsImage) ([]Image, map[Number]Number, error) {
	images := make([]Image, 0, len(m.Images))
	known := make(map[Number]struct{}, len(m.Images))
	for i, o := range m.Images {
		img, err := imageFromMetadata(o)
		if err != nil {
			return nil, nil, fmt.Errorf("metadata image %d: %w", i, err)
		}
		known[img.ID] = struct{}{}
		images = append(images, img)
	}

	imageIDs := make(map[Number]Number, len(srcImages))
	for i, src := range srcImages {
		where := fmt.Sprintf("image %d", i)
		if src.ID == nil {
			return nil, nil, missingKey(where, "id")
		}
		if src.FileName == nil {
			return nil, nil, missingKey(where, "file_name")
		}

		n, err := numericStem(*src.FileName)
		if err != nil {
			return nil, nil, err
		}
		id := Int(n)
		if _, ok := known[id]; !ok {
			return nil, nil, fmt.Errorf("%w: no metadata for image %d (%s)", ErrKeyNotFound, n,
				*src.FileName)
		}
		imageIDs[*src.ID] = id
	}

	return images, imageIDs, nil
}

// imageFromMetadata converts a COCO image record to an Image that is written out unchanged. All
// Image fields are required; the metadata fields may be null.
func imageFromMetadata(o Object) (Image, error) {
	img := Image{Source: o}
	var ok bool
	if img.ID, ok = o.number("id"); !ok {
		return Image{}, missingKey("image", "id")
	}
	if img.Width, ok = o.number("width"); !ok {
		return Image{}, missingKey("image", "width")
	}
	if img.Height, ok = o.number("height"); !ok {
		return Image{}, missingKey("image", "height")
	}
	if img.FileName, ok = o["file_name"].(string); !ok {
		return Image{}, missingKey("image", "file_name")
	}

	fields := []struct {
		key string
		dst *interface{}
	}{
		{"license", &img.License},
		{"flickr_url", &img.FlickrURL},
		{"coco_url", &img.COCOURL},
		{"date_captured", &img.DateCaptured},
	}
	for _, f := range fields {
		v, found := o[f.key]
		if !found {
			return Image{}, missingKey("image", f.key)
		}
		*f.dst = v
	}

	return img, nil
}
