// Package specification описывает запросы к коллекциям как данные:
// фильтр, подсказки загрузки, сортировку, группировку, уникальность и страницы.
package specification

import (
	"cmp"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Compare возвращает отрицательное число, если a < b, ноль при равенстве и положительное иначе.
type Compare[T any] func(a, b T) int

// Spec - неизменяемое описание выборки. Методы возвращают изменённую копию.
type Spec[T any] struct {
	Criteria    func(T) bool
	Includes    []string
	OrderBy     Compare[T]
	Descending  bool
	GroupBy     func(T) string
	Distinct    bool
	DistinctKey func(T) any
	Skip        int
	Take        int
	Paging      bool
	// Keys - равенства колонка = значение, которыми хранилище может сузить
	// чтение до вычисления Criteria. Criteria обязана проверять то же самое.
	Keys map[string]any
}

// New создаёт спецификацию с фильтром (nil - без фильтра).
func New[T any](criteria func(T) bool) Spec[T] {
	return Spec[T]{Criteria: criteria}
}

// Where добавляет условие через логическое И.
func (s Spec[T]) Where(predicate func(T) bool) Spec[T] {
	if predicate == nil {
		return s
	}
	prev := s.Criteria
	if prev == nil {
		s.Criteria = predicate
		return s
	}
	s.Criteria = func(v T) bool { return prev(v) && predicate(v) }
	return s
}

// Key добавляет подсказку отбора по колонке хранилища. Хранилище в памяти
// её игнорирует, поэтому условие дублируется в predicate.
func (s Spec[T]) Key(column string, value any, predicate func(T) bool) Spec[T] {
	keys := make(map[string]any, len(s.Keys)+1)
	maps.Copy(keys, s.Keys)
	keys[column] = value
	s.Keys = keys
	return s.Where(predicate)
}

// Include добавляет подсказки жадной загрузки для хранилища.
func (s Spec[T]) Include(names ...string) Spec[T] {
	s.Includes = append(slices.Clone(s.Includes), names...)
	return s
}

// HasInclude сообщает, запрошена ли загрузка связи name.
func (s Spec[T]) HasInclude(name string) bool {
	return slices.Contains(s.Includes, name)
}

// OrderByAsc и OrderByDesc взаимоисключающие: действует последний вызов.
func (s Spec[T]) OrderByAsc(c Compare[T]) Spec[T] {
	s.OrderBy = c
	s.Descending = false
	return s
}

func (s Spec[T]) OrderByDesc(c Compare[T]) Spec[T] {
	s.OrderBy = c
	s.Descending = true
	return s
}

func (s Spec[T]) Group(key func(T) string) Spec[T] {
	s.GroupBy = key
	return s
}

// WithDistinct включает удаление дубликатов. При key == nil ключом служит
// сам элемент, поэтому T должен быть сравнимым (например, указателем).
func (s Spec[T]) WithDistinct(key func(T) any) Spec[T] {
	s.Distinct = true
	s.DistinctKey = key
	return s
}

// Page задаёт пропуск и количество элементов.
func (s Spec[T]) Page(skip, take int) Spec[T] {
	s.Skip = skip
	s.Take = take
	s.Paging = true
	return s
}

// Paginate задаёт номер страницы (с единицы) и её размер.
func (s Spec[T]) Paginate(page, size int) Spec[T] {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 1
	}
	if page-1 > math.MaxInt/size {
		return s.Page(math.MaxInt, size)
	}
	return s.Page((page-1)*size, size)
}

// By строит сравнение по упорядочиваемому ключу.
func By[T any, K cmp.Ordered](key func(T) K) Compare[T] {
	return func(a, b T) int { return cmp.Compare(key(a), key(b)) }
}

// ByDecimal строит сравнение по денежному ключу.
func ByDecimal[T any](key func(T) decimal.Decimal) Compare[T] {
	return func(a, b T) int { return key(a).Cmp(key(b)) }
}

// ByFold сравнивает строки без учёта регистра.
func ByFold[T any](key func(T) string) Compare[T] {
	return func(a, b T) int { return strings.Compare(strings.ToLower(key(a)), strings.ToLower(key(b))) }
}

// ThenBy добавляет вторичный ключ сортировки.
func ThenBy[T any](primary, secondary Compare[T]) Compare[T] {
	return func(a, b T) int {
		if c := primary(a, b); c != 0 {
			return c
		}
		return secondary(a, b)
	}
}

// Reverse меняет направление сравнения.
func Reverse[T any](c Compare[T]) Compare[T] {
	return func(a, b T) int { return c(b, a) }
}
