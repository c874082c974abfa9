package billstore

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/zombor/billed/internal/bill"
)

// maxUploadSize bounds receipt uploads
const maxUploadSize = int64(10 << 20)

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// writeError writes {"error": message} with the given status
func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleListBills returns the bills of the authenticated employee
func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	bills, err := s.service.ListBills(identityFrom(r.Context()))
	if err != nil {
		slog.Error("Error listing bills", "error", err)
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Ensure we always return an array, not nil
	if bills == nil {
		bills = []*bill.Bill{}
	}
	writeJSON(w, http.StatusOK, bills)
}

// handleCreateBill stores a new bill
func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	var in bill.Bill
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	created, err := s.service.CreateBill(identityFrom(r.Context()), &in)
	if err != nil {
		if errors.Is(err, ErrInvalidBill) {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("Error creating bill", "error", err)
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	slog.Info("Bill created", "bill_id", created.ID, "email", created.Email)
	writeJSON(w, http.StatusCreated, created)
}

// handleGetBill returns a single bill
func (s *Server) handleGetBill(w http.ResponseWriter, r *http.Request) {
	b, err := s.service.GetBill(r.PathValue("id"))
	if err != nil {
		writeError(w, "Bill not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// handleUploadFile stores a receipt and returns where to download it
func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, "File is too large. Maximum size is 10MB.", http.StatusRequestEntityTooLarge)
			return
		}
		writeError(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, "No file was selected. Please choose a file to upload.", http.StatusBadRequest)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return
	}

	record, err := s.service.StoreFile(identityFrom(r.Context()), header.Filename, data, header.Header.Get("Content-Type"))
	if err != nil {
		if bill.IsValidation(err) || errors.Is(err, ErrContentMismatch) {
			writeError(w, err.Error(), http.StatusUnsupportedMediaType)
			return
		}
		slog.Error("Error storing file", "filename", header.Filename, "error", err)
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, bill.StoredFile{
		DownloadURL:     "/api/files/" + record.Key,
		StorageFilePath: record.Key,
	})
}

// handleGetFile serves a stored receipt
func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.service.GetFile(r.PathValue("key"))
	if err != nil {
		writeError(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}
