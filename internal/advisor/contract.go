package advisor

import (
	"pcadvisor/internal/model"
	"pcadvisor/internal/normalize"
	"pcadvisor/internal/prompt"
	"pcadvisor/internal/retrieval"
)

// Contract pairs a prompt template with the retrieval that grounds it and
// the normalization applied to the model reply.
type Contract[T any] struct {
	Flow      string
	Template  prompt.Template
	Retrieval retrieval.Request
	Normalize func(text string, err error) T
}

func chatContract(c model.Category, limit int) Contract[string] {
	return Contract[string]{
		Flow:     model.FlowChat,
		Template: prompt.Chat,
		Retrieval: retrieval.Request{
			Categories:  []model.Category{c},
			PerCategory: limit,
			Sort:        model.CheapestFirst,
			Line:        retrieval.ChatLine,
		},
		Normalize: normalize.Text,
	}
}

func legacyEstimateContract(req model.LegacyEstimateRequest, limit int) Contract[string] {
	return Contract[string]{
		Flow:     model.FlowLegacyEstimate,
		Template: prompt.LegacyEstimate(req),
		Retrieval: retrieval.Request{
			Categories:  model.MainCategories(),
			PerCategory: limit,
			Sort:        model.MostReviewedFirst,
			Line:        retrieval.PopularityLine,
		},
		Normalize: normalize.Text,
	}
}

func estimateContract(summary model.EstimateSummary, limit int) Contract[model.EstimateResult] {
	return Contract[model.EstimateResult]{
		Flow:     model.FlowEstimate,
		Template: prompt.Estimate,
		Retrieval: retrieval.Request{
			Categories:  model.MainCategories(),
			PerCategory: limit,
			Sort:        model.MostReviewedFirst,
			Line:        retrieval.ManwonLine,
		},
		Normalize: func(text string, err error) model.EstimateResult {
			return normalize.Estimate(text, err, summary)
		},
	}
}
