package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"datadesk/internal/app"
)

type createChatRequest struct {
	ProjectID string `json:"projectId"`
}

type renameChatRequest struct {
	ProjectID string `json:"projectId"`
	ChatID    string `json:"chatId"`
	Title     string `json:"title"`
}

type chatReplyRequest struct {
	ProjectID string `json:"projectId"`
	ChatID    string `json:"chatId"`
}

// handleChatMessage accepts a multipart user message: free text plus dataset
// references and chat-only files. An empty submission returns 204 and
// records nothing.
func (s *Server) handleChatMessage(w http.ResponseWriter, r *http.Request, p app.Principal) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if s.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	projectID := strings.TrimSpace(r.FormValue("projectId"))
	chatID := strings.TrimSpace(r.FormValue("chatId"))
	if projectID == "" || chatID == "" {
		writeError(w, http.StatusBadRequest, "projectId and chatId are required")
		return
	}
	var datasetIDs []string
	if raw := strings.TrimSpace(r.FormValue("selectedDatasets")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &datasetIDs); err != nil {
			writeError(w, http.StatusBadRequest, "selectedDatasets must be a JSON array of IDs")
			return
		}
	}

	var files []app.EphemeralFile
	for _, header := range multipartFiles(r) {
		content, err := readMultipartFile(header)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable file "+header.Filename)
			return
		}
		files = append(files, app.EphemeralFile{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Content:     content,
		})
	}

	msg, appended, err := s.app.AppendUserMessage(r.Context(), p, projectID, chatID, r.FormValue("content"), datasetIDs, files)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if !appended {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) handleChatReply(w http.ResponseWriter, r *http.Request, p app.Principal) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.replyLimiter, "too many reply requests") {
		return
	}
	var req chatReplyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	reply, err := s.app.RequestReply(r.Context(), p, req.ProjectID, req.ChatID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"botReply": reply})
}

func (s *Server) handleChatCreate(w http.ResponseWriter, r *http.Request, p app.Principal) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req createChatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	chat, err := s.app.CreateChat(p, req.ProjectID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, chat)
}

func (s *Server) handleChatRename(w http.ResponseWriter, r *http.Request, p app.Principal) {
	if r.Method != http.MethodPatch {
		methodNotAllowed(w)
		return
	}
	var req renameChatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	chat, err := s.app.RenameChat(p, req.ProjectID, req.ChatID, req.Title)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

// /api/chat/{projectId}/{chatId}
func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request, p app.Principal) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/chat/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	chat, err := s.app.GetChatHistory(p, parts[0], parts[1])
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chat)
}
