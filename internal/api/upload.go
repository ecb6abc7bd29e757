package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"talknote/internal/services"
	"talknote/internal/textutil"
	"talknote/internal/workflow"
)

const multipartMemory = 32 << 20

// saveUpload stores the multipart "file" part as <upload_dir>/<uuid>_<name>
// and returns a request that removes it once the job ends.
func (s *Server) saveUpload(r *http.Request) (workflow.Request, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return workflow.Request{}, services.Wrap(services.ErrValidation, "api", "submit", "invalid multipart form", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return workflow.Request{}, services.Wrap(services.ErrValidation, "api", "submit", "no file part in the request", nil)
		}
		return workflow.Request{}, services.Wrap(services.ErrValidation, "api", "submit", "read file part", err)
	}
	defer file.Close()

	name := textutil.StoredName(header.Filename)
	if name == "" {
		return workflow.Request{}, services.Wrap(services.ErrValidation, "api", "submit", "no file selected", nil)
	}
	dir := s.cfg.Paths.UploadDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return workflow.Request{}, services.Wrap(services.ErrFileSystem, "api", "submit", "create upload directory", err)
	}
	path := filepath.Join(dir, uuid.NewString()+"_"+name)
	out, err := os.Create(path)
	if err != nil {
		return workflow.Request{}, services.Wrap(services.ErrFileSystem, "api", "submit", "create upload file", err)
	}
	if _, err := io.Copy(out, file); err != nil {
		_ = out.Close()
		discardUpload(path)
		return workflow.Request{}, services.Wrap(services.ErrFileSystem, "api", "submit", "write upload file", err)
	}
	if err := out.Close(); err != nil {
		discardUpload(path)
		return workflow.Request{}, services.Wrap(services.ErrFileSystem, "api", "submit", "close upload file", err)
	}

	return workflow.Request{
		Source:         path,
		QualityPreset:  firstNonEmpty(r.FormValue("quality"), r.FormValue("accuracy")),
		TargetLanguage: r.FormValue("language"),
		RemoveSource:   true,
	}, nil
}

func decodeURLSubmission(r *http.Request) (workflow.Request, error) {
	var body SubmitURLRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&body); err != nil {
		return workflow.Request{}, services.Wrap(services.ErrValidation, "api", "submit", "invalid JSON body", err)
	}
	url := strings.TrimSpace(body.URL)
	if url == "" {
		return workflow.Request{}, services.Wrap(services.ErrValidation, "api", "submit", "URL is missing", nil)
	}
	if workflow.SourceKind(url) != "url" {
		return workflow.Request{}, services.Wrap(services.ErrValidation, "api", "submit", "url must start with http:// or https://", nil)
	}
	return workflow.Request{
		Source:         url,
		QualityPreset:  firstNonEmpty(body.Quality, body.Accuracy),
		TargetLanguage: body.Language,
	}, nil
}


func discardUpload(path string) {
	_ = os.Remove(path)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
