package specification

import (
	"slices"

	"github.com/samber/lo"
)

// Evaluate применяет спецификацию к источнику в фиксированном порядке:
// фильтр -> подсказки загрузки -> сортировка -> группировка -> уникальность -> страница.
// Источник не изменяется. Порядок шагов менять нельзя: страница до сортировки
// даёт недетерминированный результат.
func Evaluate[T any](source []T, spec Spec[T]) []T {
	result := slices.Clone(source)

	if spec.Criteria != nil {
		result = lo.Filter(result, func(v T, _ int) bool { return spec.Criteria(v) })
	}

	// Includes обрабатывает хранилище при загрузке источника.

	if spec.OrderBy != nil {
		compare := spec.OrderBy
		if spec.Descending {
			compare = Reverse(compare)
		}
		slices.SortStableFunc(result, (func(a, b T) int)(compare))
	}

	if spec.GroupBy != nil {
		result = groupContiguous(result, spec.GroupBy)
	}

	if spec.Distinct {
		key := spec.DistinctKey
		if key == nil {
			key = func(v T) any { return v }
		}
		result = lo.UniqBy(result, key)
	}

	if spec.Paging {
		result = page(result, spec.Skip, spec.Take)
	}

	if result == nil {
		return []T{}
	}
	return result
}

// groupContiguous собирает элементы одной группы подряд; группы идут
// в порядке первого появления ключа, порядок внутри группы сохраняется.
func groupContiguous[T any](items []T, key func(T) string) []T {
	groups := lo.GroupBy(items, key)
	order := lo.Uniq(lo.Map(items, func(v T, _ int) string { return key(v) }))
	return lo.FlatMap(order, func(k string, _ int) []T { return groups[k] })
}

func page[T any](items []T, skip, take int) []T {
	if skip < 0 {
		skip = 0
	}
	if take < 0 {
		take = 0
	}
	if skip >= len(items) {
		return []T{}
	}
	// skip+take может переполнить int.
	end := len(items)
	if take < end-skip {
		end = skip + take
	}
	return items[skip:end]
}
