package handlers

import (
	"fmt"
	"io"
	"mime/multipart"

	"trusthaven/internal/models"
	"trusthaven/internal/services"
)

// collectImageFiles gathers every file under the given form keys.
func collectImageFiles(form *multipart.Form, keys ...string) []*multipart.FileHeader {
	if form == nil {
		return nil
	}

	var result []*multipart.FileHeader
	for _, key := range keys {
		if headers, ok := form.File[key]; ok {
			result = append(result, headers...)
		}
	}
	return result
}

// readImageFiles loads the uploaded files, refusing any above maxSize.
func readImageFiles(headers []*multipart.FileHeader, maxSize int64) ([]services.ImageFile, error) {
	files := make([]services.ImageFile, 0, len(headers))
	for _, header := range headers {
		if header.Size > maxSize {
			return nil, fmt.Errorf("%w: %s is larger than %d MB", models.ErrValidation, header.Filename, maxSize>>20)
		}

		f, err := header.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(io.LimitReader(f, maxSize+1))
		f.Close()
		if err != nil {
			return nil, err
		}
		if int64(len(data)) > maxSize {
			return nil, fmt.Errorf("%w: %s is larger than %d MB", models.ErrValidation, header.Filename, maxSize>>20)
		}
		files = append(files, services.ImageFile{Name: header.Filename, Data: data})
	}
	return files, nil
}
