package api

import (
	"github.com/shopspring/decimal"

	"CryptoRadar/internal/model"
)

// Fixed decimal places per field family.
const (
	pricePlaces   = 6
	percentPlaces = 2
	rsiPlaces     = 2
	macdPlaces    = 4
	volumePlaces  = 2
)

func fixed(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}

type explosionDTO struct {
	Symbol             string `json:"symbol"`
	Score              int    `json:"score"`
	PriceChangePercent string `json:"priceChangePercent"`
	LastPrice          string `json:"lastPrice"`
	QuoteVolume        string `json:"quoteVolume"`
	Trades             int64  `json:"trades"`
	RSI                string `json:"rsi"`
	Recommendation     string `json:"recommendation"`
}

func newExplosionDTO(e model.ExplosionScore) explosionDTO {
	return explosionDTO{
		Symbol:             e.Symbol,
		Score:              e.Score,
		PriceChangePercent: fixed(e.PriceChangePercent, percentPlaces),
		LastPrice:          fixed(e.LastPrice, pricePlaces),
		QuoteVolume:        fixed(e.QuoteVolume, volumePlaces),
		Trades:             e.Count,
		RSI:                fixed(e.RSI, rsiPlaces),
		Recommendation:     string(e.Recommendation),
	}
}

type listingDTO struct {
	Symbol      string `json:"symbol"`
	Price       string `json:"price"`
	Volume      string `json:"volume"`
	Trades      int64  `json:"trades"`
	PriceChange string `json:"priceChange"`
	Score       string `json:"score"`
}

func newListingDTO(l model.NewListingCandidate) listingDTO {
	return listingDTO{
		Symbol:      l.Symbol,
		Price:       fixed(l.Price, pricePlaces),
		Volume:      fixed(l.Volume, volumePlaces),
		Trades:      l.Trades,
		PriceChange: fixed(l.PriceChange, percentPlaces),
		Score:       fixed(l.Score, percentPlaces),
	}
}

type macdDTO struct {
	MACD      string `json:"macd"`
	Signal    string `json:"signal"`
	Histogram string `json:"histogram"`
}

type analysisDTO struct {
	Symbol     string  `json:"symbol"`
	Price      string  `json:"price"`
	RSI        string  `json:"rsi"`
	MACD       macdDTO `json:"macd"`
	Volatility string  `json:"volatility"`
	EMA12      string  `json:"ema12"`
	EMA26      string  `json:"ema26"`
	Trend      string  `json:"trend"`
}

func newAnalysisDTO(a model.Analysis) analysisDTO {
	return analysisDTO{
		Symbol: a.Symbol,
		Price:  fixed(a.Price, pricePlaces),
		RSI:    fixed(a.RSI, rsiPlaces),
		MACD: macdDTO{
			MACD:      fixed(a.MACD.MACD, macdPlaces),
			Signal:    fixed(a.MACD.Signal, macdPlaces),
			Histogram: fixed(a.MACD.Histogram, macdPlaces),
		},
		Volatility: fixed(a.Volatility, percentPlaces),
		EMA12:      fixed(a.EMA12, pricePlaces),
		EMA26:      fixed(a.EMA26, pricePlaces),
		Trend:      string(a.Trend),
	}
}

type planDTO struct {
	Symbol         string `json:"symbol"`
	Score          int    `json:"score"`
	Recommendation string `json:"recommendation"`
	BuyPrice       string `json:"buyPrice"`
	SellTarget     string `json:"sellTarget"`
	StopLoss       string `json:"stopLoss"`
	Confidence     string `json:"confidence"`
	Timeframe      string `json:"timeframe"`
}

func newPlanDTO(p model.TradePlan) planDTO {
	return planDTO{
		Symbol:         p.Symbol,
		Score:          p.Score,
		Recommendation: string(p.Recommendation),
		BuyPrice:       fixed(p.BuyPrice, pricePlaces),
		SellTarget:     fixed(p.SellTarget, pricePlaces),
		StopLoss:       fixed(p.StopLoss, pricePlaces),
		Confidence:     fixed(p.Confidence, 0),
		Timeframe:      p.Timeframe,
	}
}
