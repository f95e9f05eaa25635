package engine

// CheckResult - исход сравнения отпечатков для одного номера хода.
type CheckResult uint8

const (
	// HashNotChecked - архивного отпечатка для этого хода нет
	// (он выпал из интервала сэмплирования). Это не совпадение
	// и не ошибка.
	HashNotChecked CheckResult = iota
	HashMatch
	HashMismatch
)

// CompareFingerprints - чистая функция детектора десинков: сравнивает
// авторитарный/архивный отпечаток с отпечатком участника для одного
// и того же номера хода. Никаких корректирующих действий не предпринимает.
func CompareFingerprints(archived *uint64, reported uint64) CheckResult {
	if archived == nil {
		return HashNotChecked
	}
	if *archived == reported {
		return HashMatch
	}
	return HashMismatch
}
