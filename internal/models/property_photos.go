package models

import "errors"

// ErrInvalidCover is returned when the cover is not one of the listing's photos.
var ErrInvalidCover = errors.New("cover photo must be one of the listing photos")

// AddPhotos appends uploaded photo URLs, skipping ones already attached.
func (p *Property) AddPhotos(urls ...string) {
	for _, u := range urls {
		if u == "" || p.hasPhoto(u) {
			continue
		}
		p.PhotoPaths = append(p.PhotoPaths, u)
	}
}

// RemovePhoto detaches a photo. The cover is cleared when it pointed at it.
func (p *Property) RemovePhoto(url string) bool {
	kept := p.PhotoPaths[:0:0]
	removed := false
	for _, u := range p.PhotoPaths {
		if u == url {
			removed = true
			continue
		}
		kept = append(kept, u)
	}
	p.PhotoPaths = kept
	if p.CoverPhotoPath == url {
		p.CoverPhotoPath = ""
	}
	return removed
}

// SetCover marks one of the attached photos as the cover.
func (p *Property) SetCover(url string) error {
	if !p.hasPhoto(url) {
		return ErrInvalidCover
	}
	p.CoverPhotoPath = url
	return nil
}

// Cover returns the cover photo, defaulting to the first photo.
func (p *Property) Cover() string {
	if p.CoverPhotoPath != "" {
		return p.CoverPhotoPath
	}
	if len(p.PhotoPaths) > 0 {
		return p.PhotoPaths[0]
	}
	return ""
}

// PhotoPatch is the update payload carrying the photo fields.
func (p *Property) PhotoPatch() map[string]any {
	paths := p.PhotoPaths
	if paths == nil {
		paths = []string{}
	}
	return map[string]any{
		"photo_paths":      paths,
		"cover_photo_path": p.CoverPhotoPath,
	}
}

func (p *Property) hasPhoto(url string) bool {
	for _, u := range p.PhotoPaths {
		if u == url {
			return true
		}
	}
	return false
}
