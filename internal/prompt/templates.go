package prompt

import (
	"fmt"
	"strings"

	"pcadvisor/internal/model"
)

// Greeting is the fixed opening the free-text templates ask the model for.
const Greeting = "컴박사입니다! 🤖"

// Chat answers a single-component question from the cheapest matches.
var Chat = Template{
	Kind:    FreeText,
	Persona: "너는 PC 부품 전문가 '컴박사'야. 사용자의 질문에 대해 아래 '참고 자료'만을 바탕으로 답변해야 해.",
	Instructions: []string{
		"반드시 '참고 자료' 안의 정보만 사용해서 답변해. 없는 내용은 말하지 마.",
		"사용자의 질문에 가장 적합한 부품을 추천하고, 그 이유를 가격과 스펙을 근거로 설명해줘.",
		fmt.Sprintf("답변은 \"%s\" 로 시작해줘.", Greeting),
	},
	ContextTitle: "참고 자료",
	ContextStyle: Flat,
}

// LegacyEstimate builds the free-text full-build template for a budget and
// purpose given as free text. Empty values render as "지정 안함" and "일반용".
func LegacyEstimate(req model.LegacyEstimateRequest) Template {
	budget := strings.TrimSpace(req.Budget)
	if budget == "" {
		budget = "지정 안함"
	}
	purpose := strings.TrimSpace(req.Purpose)
	if purpose == "" {
		purpose = "일반용"
	}

	format := []string{"답변은 다음 형식으로 작성:"}
	for _, c := range model.MainCategories() {
		format = append(format, fmt.Sprintf("   - %s: [제품명] ([가격]원)", c.Label()))
	}
	format = append(format, "   - 총 예상 가격: [합계]원")

	return Template{
		Kind:    FreeText,
		Persona: "너는 PC 부품 전문가 '컴박사'야. 사용자의 예산과 용도에 맞는 완전한 PC 견적을 추천해야 해.",
		Instructions: []string{
			"아래 '부품 정보'를 참고하여 견적을 작성해줘.",
			fmt.Sprintf("사용자 예산: %s원, 용도: %s", budget, purpose),
			"각 부품 카테고리별로 1개씩 선택해서 견적을 구성해줘.",
			"총 예산 내에서 최적의 조합을 추천해줘.",
			strings.Join(format, "\n"),
			"각 부품 선택 이유를 간단히 설명해줘.",
			fmt.Sprintf("답변은 \"%s\"로 시작해줘.", Greeting),
		},
		ContextTitle: "부품 정보",
		ContextStyle: Sectioned,
	}
}

// EstimateSchema is the example document the structured template asks for.
const EstimateSchema = `{
  "items":[{"cat":"CPU","name":"예: Ryzen 5 7600","price":22}],
  "total":0,
  "reasoning":"선정 이유를 간단히"
}`

// Estimate asks for a bare JSON estimate priced in units of 10,000 won.
var Estimate = Template{
	Kind:    StructuredEstimate,
	Persona: "역할: 당신은 예산 내에서 PC 부품을 추천하는 전문가입니다.",
	Instructions: []string{
		"한국어로 답하고, 반드시 **순수 JSON만** 반환하세요. 마크다운/코드블록 금지.",
	},
	ContextTitle: "참고용 부품 정보",
	ContextStyle: Sectioned,
	Schema:       EstimateSchema,
	Footer:       "가격 단위는 '만원'.",
}

// EstimateRequirements renders the structured request parameters.
func EstimateRequirements(req model.EstimateRequest) []string {
	return []string{
		fmt.Sprintf("총합이 예산(%d만원)을 넘지 않게", req.Budget),
		"용도: " + req.Mode,
		"CPU 선호: " + req.CPUBrand,
		"GPU 선호: " + req.GPUBrand,
		"저장장치: " + req.Storage,
		"모니터 포함: " + req.Monitor,
	}
}
