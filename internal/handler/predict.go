package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"StockForecaster/internal/forecast"
	"StockForecaster/internal/model"
)

// Forecaster runs the prediction pipeline for one ticker.
type Forecaster interface {
	Run(ctx context.Context, ticker string) (*model.ForecastResult, error)
}

type predictRequest struct {
	Ticker string `json:"ticker" binding:"required"`
}

type predictResponse struct {
	Status         string  `json:"status"`
	PlotImg        string  `json:"plot_img"`
	Plot100DMA     string  `json:"plot_100_dma"`
	Plot200DMA     string  `json:"plot_200_dma"`
	PlotPrediction string  `json:"plot_prediction"`
	MSE            float64 `json:"mse"`
	RMSE           float64 `json:"rmse"`
	R2             float64 `json:"r2"`
}

// PredictHandler serves POST /api/v1/predict/.
type PredictHandler struct {
	Forecaster Forecaster
}

func (h *PredictHandler) Register(r gin.IRouter) {
	r.POST("/api/v1/predict/", h.predict)
}

func (h *PredictHandler) predict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindMessage(err)})
		return
	}

	res, err := h.Forecaster.Run(c.Request.Context(), req.Ticker)
	if err != nil {
		status, msg := errorResponse(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	m := res.Prediction.Metrics
	c.JSON(http.StatusOK, predictResponse{
		Status:         "success",
		PlotImg:        res.Charts.Closing,
		Plot100DMA:     res.Charts.DMA100,
		Plot200DMA:     res.Charts.DMA200,
		PlotPrediction: res.Charts.Prediction,
		MSE:            m.MSE,
		RMSE:           m.RMSE,
		R2:             m.R2,
	})
}

// bindMessage distinguishes a missing ticker from an unreadable body.
func bindMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return "ticker: this field is required."
	}
	return "invalid request body: " + err.Error()
}

// errorResponse maps a pipeline failure to its HTTP status and public message.
func errorResponse(err error) (int, string) {
	var fe *forecast.Error
	if !errors.As(err, &fe) {
		return http.StatusInternalServerError, "Server error: " + err.Error()
	}
	switch fe.Kind {
	case forecast.KindValidation, forecast.KindInsufficientData:
		return http.StatusBadRequest, fe.Public()
	default:
		return http.StatusInternalServerError, fe.Public()
	}
}
