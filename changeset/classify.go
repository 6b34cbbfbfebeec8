/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package changeset

import (
	"mime"
	"path"
	"strings"
	"unicode/utf8"
)

var imageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".ico":  "image/x-icon",
	".svg":  "image/svg+xml",
}

// viewableTypes are the image media types model providers accept as input.
var viewableTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Viewable reports whether an image of mediaType can be attached to a
// review request. Other images are only described by name and size.
func Viewable(mediaType string) bool {
	return viewableTypes[strings.ToLower(mediaType)]
}

// Classify decides how a downloaded file is presented. Images are
// recognised by content type or extension; anything else that is not
// valid UTF-8 is binary.
func Classify(filename, contentType string, body []byte) Classification {
	if IsImage(filename, contentType) {
		return Image
	}
	if !utf8.Valid(body) {
		return Binary
	}
	return Text
}

// IsImage reports whether the content type or the file extension denotes an image.
func IsImage(filename, contentType string) bool {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/") {
		return true
	}
	_, ok := imageExtensions[strings.ToLower(path.Ext(filename))]
	return ok
}

// MediaType returns the image media type, preferring the served content
// type and falling back to the extension.
func MediaType(filename, contentType string) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil && strings.HasPrefix(mt, "image/") {
		return mt
	}
	if mt, ok := imageExtensions[strings.ToLower(path.Ext(filename))]; ok {
		return mt
	}
	return "application/octet-stream"
}
