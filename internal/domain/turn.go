package domain

// Turn - упорядоченная неизменяемая пачка интентов одного тика.
//
// Инварианты:
//   - Number строго растет с нуля, без пропусков в рамках одного потока;
//   - после коммита (отправки хоть одному участнику) содержимое не меняется;
//   - порядок Intents = порядок прибытия к источнику ходов. Это намеренный
//     tie-break: перестановка интентов внутри хода меняет исход симуляции.
type Turn struct {
	Number  uint64   `json:"turnNumber"`
	Intents []Intent `json:"intents"`

	// Hash - отпечаток состояния симуляции ПОСЛЕ применения этого хода.
	// Сохраняется только для выборочного подмножества ходов
	// (Config.HashSampleEvery), чтобы ограничить размер архива.
	Hash *uint64 `json:"hash,omitempty"`
}

// EmptyTurn синтезирует пустой ход с заданным номером.
// Используется для заполнения пропусков при догоне: симуляция не имеет
// права перешагнуть тик, даже если сеть не доставила для него данных.
func EmptyTurn(n uint64) Turn {
	return Turn{Number: n, Intents: nil}
}
