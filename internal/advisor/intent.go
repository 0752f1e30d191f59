package advisor

import (
	"strings"

	"pcadvisor/internal/model"
)

// vocabulary is checked in order; the first keyword found wins.
var vocabulary = []struct {
	category model.Category
	keywords []string
}{
	{model.CPU, []string{"cpu"}},
	{model.GPU, []string{"그래픽카드", "vga", "gpu"}},
	{model.Motherboard, []string{"메인보드", "보드"}},
	{model.RAM, []string{"ram", "램", "메모리"}},
	{model.SSD, []string{"ssd"}},
	{model.HDD, []string{"hdd", "하드"}},
	{model.PSU, []string{"파워", "전원"}},
	{model.Case, []string{"케이스", "컴퓨터케이스"}},
	{model.Cooler, []string{"쿨러", "냉각"}},
}

// ExtractCategory maps free text to the component category it asks about.
func ExtractCategory(query string) (model.Category, bool) {
	q := strings.ToLower(query)
	for _, v := range vocabulary {
		for _, kw := range v.keywords {
			if strings.Contains(q, kw) {
				return v.category, true
			}
		}
	}
	return 0, false
}
