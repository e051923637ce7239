package controllers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	apperrors "github.com/yashrajoria/affiliate-storefront/common/errors"
	"github.com/yashrajoria/affiliate-storefront/models"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const (
	maxImageBytes = 10 << 20
	maxVideoBytes = 100 << 20
)

var validate = validator.New()

// ProductRequest is the body of product create and update calls, sent as
// JSON or as multipart form fields next to the media files.
type ProductRequest struct {
	Name        string `json:"name" form:"name" validate:"max=200"`
	Description string `json:"description" form:"description" validate:"max=5000"`
	Image       string `json:"image" form:"image"`
	Link        string `json:"shopeeLink" form:"shopeeLink" validate:"required,url"`
	Category    string `json:"category" form:"category" validate:"max=100"`
	Price       string `json:"price" form:"price" validate:"omitempty,numeric"`
}

func (r ProductRequest) toInput() (models.ProductInput, error) {
	in := models.ProductInput{
		Name:        r.Name,
		Description: r.Description,
		Image:       r.Image,
		Link:        r.Link,
		Category:    r.Category,
	}
	if p := strings.TrimSpace(r.Price); p != "" {
		d, err := decimal.NewFromString(p)
		if err != nil {
			return in, apperrors.Validation("price must be a decimal number")
		}
		in.Price = &d
	}
	return in, nil
}

// KitRequest is the body of kit create and update calls.
type KitRequest struct {
	Name        string      `json:"name" validate:"required,max=200"`
	Description string      `json:"description" validate:"required,max=5000"`
	Image       string      `json:"image" validate:"required,url"`
	ProductIDs  []models.ID `json:"productIds" validate:"required,min=1,dive,required"`
}

func (r KitRequest) toInput() models.KitInput {
	return models.KitInput{
		Name:        r.Name,
		Description: r.Description,
		Image:       r.Image,
		ProductIDs:  r.ProductIDs,
	}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UnlockRequest struct {
	Passcode string `json:"passcode" validate:"required"`
}

// bindAndValidate decodes the body into req and runs the struct validations.
func bindAndValidate(c *gin.Context, req interface{}) error {
	if err := c.ShouldBind(req); err != nil {
		return apperrors.Validation("Invalid request: " + err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return apperrors.Validation(validationMessage(err))
	}
	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
	}
	return "Validation failed: " + strings.Join(parts, "; ")
}

// mediaUploads collects the images and videos form files.
func mediaUploads(c *gin.Context) ([]models.MediaUpload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		// Plain JSON or urlencoded bodies carry no files.
		return nil, nil
	}
	var uploads []models.MediaUpload
	for _, group := range []struct {
		field string
		kind  models.MediaKind
		max   int64
	}{
		{"images", models.MediaImage, maxImageBytes},
		{"videos", models.MediaVideo, maxVideoBytes},
	} {
		for _, fh := range form.File[group.field] {
			if fh.Size > group.max {
				return nil, apperrors.Validation(fmt.Sprintf("%s exceeds the %d MB limit", fh.Filename, group.max>>20))
			}
			uploads = append(uploads, fileUpload(group.kind, fh))
		}
	}
	return uploads, nil
}

func fileUpload(kind models.MediaKind, fh *multipart.FileHeader) models.MediaUpload {
	return models.MediaUpload{
		Kind:        kind,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}
