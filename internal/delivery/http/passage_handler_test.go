package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/frontandrew/tollplaza/internal/domain"
	"github.com/frontandrew/tollplaza/internal/pkg/logger"
	"github.com/frontandrew/tollplaza/internal/usecase/passage"
	"github.com/frontandrew/tollplaza/internal/usecase/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestPassageHandler_Evaluate(t *testing.T) {
	validUntil := time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		requestBody    interface{}
		mockSetup      func(*MockPassageService)
		expectedStatus int
		checkResponse  func(*testing.T, map[string]interface{})
	}{
		{
			name: "allowed passage",
			requestBody: passage.EvaluateRequest{
				VehicleReg: "MH12AB1234",
				TollID:     "T1",
				BoothID:    "T1-B1",
			},
			mockSetup: func(m *MockPassageService) {
				decision := &passage.Decision{
					Allowed: true,
					Reason:  "passage allowed",
					Pass: &passage.PassSnapshot{
						PassID:        "pass-1",
						PassType:      domain.PassTypeReturn,
						Status:        domain.PassStatusActive,
						ValidUntil:    &validUntil,
						UsesRemaining: 1,
					},
				}
				m.On("Evaluate", mock.Anything, mock.AnythingOfType("*passage.EvaluateRequest")).
					Return(decision, nil)
			},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, resp map[string]interface{}) {
				assert.True(t, resp["success"].(bool))
				data := resp["data"].(map[string]interface{})
				assert.True(t, data["allowed"].(bool))
				pass := data["pass"].(map[string]interface{})
				assert.Equal(t, "pass-1", pass["pass_id"])
				assert.Equal(t, float64(1), pass["uses_remaining"])
			},
		},
		{
			name: "denied passage is still HTTP 200",
			requestBody: passage.EvaluateRequest{
				VehicleReg: "MH12AB1234",
				TollID:     "T1",
				BoothID:    "T1-B1",
			},
			mockSetup: func(m *MockPassageService) {
				decision := &passage.Decision{
					Allowed: false,
					Reason:  passage.ReasonNoValidPass,
					PassOptions: []pricing.Option{
						{PassType: domain.PassTypeSingle, Price: 100, Duration: "1 hour", Uses: 1},
					},
				}
				m.On("Evaluate", mock.Anything, mock.AnythingOfType("*passage.EvaluateRequest")).
					Return(decision, nil)
			},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, resp map[string]interface{}) {
				assert.True(t, resp["success"].(bool))
				data := resp["data"].(map[string]interface{})
				assert.False(t, data["allowed"].(bool))
				assert.Equal(t, passage.ReasonNoValidPass, data["reason"])
				options := data["pass_options"].([]interface{})
				assert.Len(t, options, 1)
			},
		},
		{
			name:           "invalid JSON",
			requestBody:    "not json",
			mockSetup:      func(m *MockPassageService) {},
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, resp map[string]interface{}) {
				assert.False(t, resp["success"].(bool))
			},
		},
		{
			name: "missing fields",
			requestBody: passage.EvaluateRequest{
				VehicleReg: "MH12AB1234",
			},
			mockSetup:      func(m *MockPassageService) {},
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, resp map[string]interface{}) {
				assert.False(t, resp["success"].(bool))
			},
		},
		{
			name: "evaluation failure",
			requestBody: passage.EvaluateRequest{
				VehicleReg: "MH12AB1234",
				TollID:     "T1",
				BoothID:    "T1-B1",
			},
			mockSetup: func(m *MockPassageService) {
				m.On("Evaluate", mock.Anything, mock.AnythingOfType("*passage.EvaluateRequest")).
					Return(nil, errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
			checkResponse: func(t *testing.T, resp map[string]interface{}) {
				assert.False(t, resp["success"].(bool))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockPassageService)
			tt.mockSetup(mockService)

			handler := NewPassageHandler(mockService, logger.NewNoop())

			body, _ := json.Marshal(tt.requestBody)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/passages", bytes.NewReader(body))
			w := httptest.NewRecorder()

			handler.Evaluate(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var response map[string]interface{}
			json.Unmarshal(w.Body.Bytes(), &response)
			tt.checkResponse(t, response)

			mockService.AssertExpectations(t)
		})
	}
}
