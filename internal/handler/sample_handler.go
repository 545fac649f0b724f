package handler

import "net/http"

type SampleHandler struct{}

func NewSampleHandler() *SampleHandler {
	return &SampleHandler{}
}

func (h *SampleHandler) Hello(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, "Hello")
}

func (h *SampleHandler) HelloAdmin(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, "Hello, admin")
}
