package classification

import "github.com/Veraticus/weightbot/internal/model"

// DefaultKeywords returns the built-in keyword dictionary in search order.
// Keywords are Korean, Chinese or English and are matched as lower-case substrings.
func DefaultKeywords() []Keywords {
	return []Keywords{
		{Category: model.CategorySmallElec, Words: []string{"드라이기", "청소기", "电子", "small", "vacuum", "吸尘器"}},
		{Category: model.CategoryRiceCooker, Words: []string{"밥솥", "电饭煲"}},
		{Category: model.CategoryKettle, Words: []string{"주전자", "电热水壶"}},
		{Category: model.CategoryThermos, Words: []string{"보온병", "保温壶"}},
		{Category: model.CategoryAirFryer, Words: []string{"에어프라이어", "空气炸锅"}},
		{Category: model.CategoryBlender, Words: []string{"믹서기", "破壁机"}},
		{Category: model.CategoryShoes, Words: []string{"신발", "鞋"}},
		{Category: model.CategoryClothing, Words: []string{"의류", "衣服"}},
		{Category: model.CategoryContainer, Words: []string{"용기", "塑料", "收纳"}},
		{Category: model.CategoryPotPan, Words: []string{"냄비", "锅"}},
		{Category: model.CategoryBeauty, Words: []string{"미용", "美容"}},
	}
}

// volumeIndicators push otherwise unmatched text toward the rice cooker formula,
// which prices by volume.
var volumeIndicators = []string{"l", "리터", "升"}
