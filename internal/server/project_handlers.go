package server

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"datadesk/internal/app"
)

type createProjectRequest struct {
	TeamID      string `json:"teamId"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type updateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request, p app.Principal) {
	switch r.Method {
	case http.MethodPost:
		var req createProjectRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		project, err := s.app.CreateProject(p, req.TeamID, req.Name, req.Description)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, project)
	case http.MethodGet:
		teamID := strings.TrimSpace(r.URL.Query().Get("teamId"))
		if teamID == "" {
			writeError(w, http.StatusBadRequest, "teamId query parameter required")
			return
		}
		projects, err := s.app.ListProjects(p, teamID)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": projects, "count": len(projects)})
	default:
		methodNotAllowed(w)
	}
}

// /api/projects/{id}, /api/projects/{id}/datasets, /api/projects/{id}/chats
func (s *Server) handleProjectByID(w http.ResponseWriter, r *http.Request, p app.Principal) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/projects/")
	parts := strings.SplitN(rest, "/", 2)
	id := parts[0]
	if id == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if len(parts) == 2 {
		switch parts[1] {
		case "datasets":
			s.handleProjectDatasets(w, r, p, id)
		case "chats":
			s.handleProjectChats(w, r, p, id)
		default:
			writeError(w, http.StatusNotFound, "not found")
		}
		return
	}
	switch r.Method {
	case http.MethodGet:
		project, err := s.app.GetProject(p, id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, project)
	case http.MethodPut:
		var req updateProjectRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		project, err := s.app.UpdateProject(p, id, req.Name, req.Description)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, project)
	case http.MethodDelete:
		if err := s.app.DeleteProject(p, id); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleProjectDatasets(w http.ResponseWriter, r *http.Request, p app.Principal, projectID string) {
	switch r.Method {
	case http.MethodGet:
		datasets, err := s.app.ListProjectDatasets(r.Context(), p, projectID)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": datasets, "count": len(datasets)})
	case http.MethodPost:
		files, ok := s.readUploadFiles(w, r)
		if !ok {
			return
		}
		datasets, err := s.app.UploadDatasets(r.Context(), p, projectID, files)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"items": datasets, "count": len(datasets)})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleProjectChats(w http.ResponseWriter, r *http.Request, p app.Principal, projectID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	chats, err := s.app.ListChats(p, projectID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": chats, "count": len(chats)})
}

// readUploadFiles parses the multipart "files" field into memory. A false
// return means the response has already been written.
func (s *Server) readUploadFiles(w http.ResponseWriter, r *http.Request) ([]app.UploadFile, bool) {
	if s.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return nil, false
	}
	headers := multipartFiles(r)
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "at least one file is required (field: files)")
		return nil, false
	}
	files := make([]app.UploadFile, 0, len(headers))
	for _, header := range headers {
		content, err := readMultipartFile(header)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable file "+header.Filename)
			return nil, false
		}
		files = append(files, app.UploadFile{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Content:     content,
		})
	}
	return files, true
}

func multipartFiles(r *http.Request) []*multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	return r.MultipartForm.File["files"]
}

func readMultipartFile(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
