package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/schoolpay/backend/pkg/db/models"
)

func TestStudentLookupByAdmissionNo(t *testing.T) {
	student := &models.Student{
		ID:          uuid.New(),
		AdmissionNo: "ADM-1042",
		Name:        "Asha Verma",
		Class:       "VI",
	}
	ctrl := NewStudentsController(&singleStudentRepo{student: student}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/students/lookup?admission_no=ADM-1042", nil)
	resp := httptest.NewRecorder()
	ctrl.Lookup(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data models.Student `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != student.ID {
		t.Fatalf("unexpected student id %s", envelope.Data.ID)
	}
}

func TestStudentLookupUnknownAdmissionNo(t *testing.T) {
	ctrl := NewStudentsController(&singleStudentRepo{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/students/lookup?admission_no=ADM-9999", nil)
	resp := httptest.NewRecorder()
	ctrl.Lookup(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestStudentLookupRequiresAdmissionNo(t *testing.T) {
	ctrl := NewStudentsController(&singleStudentRepo{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/students/lookup", nil)
	resp := httptest.NewRecorder()
	ctrl.Lookup(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
