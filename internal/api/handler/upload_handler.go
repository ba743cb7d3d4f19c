package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/magmutual/users-api/internal/core/domain"
	"github.com/magmutual/users-api/internal/core/ports"
)

const uploadSuccessMessage = "File uploaded and data saved to database successfully."

// UploadHandler handles bulk CSV imports.
type UploadHandler struct {
	importer ports.ImportService
	log      zerolog.Logger
}

func NewUploadHandler(importer ports.ImportService, log zerolog.Logger) *UploadHandler {
	return &UploadHandler{importer: importer, log: log}
}

// Upload handles POST /api/users/upload. The whole file is imported in one
// transaction; any bad row rejects the file.
//
// @Summary      Import users from CSV
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string  false  "Replays the earlier result for a repeated key"
// @Param        file             formData  file    true   "CSV with header id,firstname,lastname,email,profession,dateCreated,country,city"
// @Success      200              {object}  uploadResponse
// @Failure      400              {object}  ErrorResponse
// @Failure      403              {object}  ErrorResponse
// @Failure      500              {object}  ErrorResponse
// @Router       /api/users/upload [post]
func (h *UploadHandler) Upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return domain.ErrEmptyUpload
		}
		return echo.NewHTTPError(http.StatusBadRequest, "invalid multipart payload")
	}
	if fh.Size == 0 {
		return domain.ErrEmptyUpload
	}

	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := h.importer.ImportCSV(c.Request().Context(), f, c.Request().Header.Get("Idempotency-Key"))
	if err != nil {
		return err
	}

	h.log.Info().
		Str("subject", subject(c)).
		Str("filename", fh.Filename).
		Int("imported", res.Imported).
		Bool("replayed", res.Replayed).
		Msg("csv upload processed")

	return c.JSON(http.StatusOK, uploadResponse{
		Message:  uploadSuccessMessage,
		Imported: res.Imported,
		Replayed: res.Replayed,
	})
}
