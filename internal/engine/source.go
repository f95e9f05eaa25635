package engine

import "github.com/hmkj6688-bit/TrRainGame/internal/domain"

// TurnSource выдает ходы строго по порядку номеров, без пропусков,
// и не выдает ход N+1, пока потребитель не подтвердил ход N через
// TurnComplete. Это единственный механизм синхронизации ядра:
// один писатель (driver), один строго упорядоченный поток ходов.
//
// Два варианта за одним контрактом, выбираются при конструировании:
//   - RemoteTurnSource: ходы приходят от авторитарного сетевого пира;
//   - LocalTurnSource: одиночная игра (живой буфер интентов) либо
//     реплей (ходы читаются из архивной записи).
//
// Симуляционный код не знает, с каким вариантом работает.
type TurnSource interface {
	// Turns возвращает канал закоммиченных ходов. Закрытие канала
	// означает конец партии (или конец записи в режиме реплея).
	Turns() <-chan domain.Turn

	// SubmitIntent передает локальное действие игрока на включение
	// в будущий ход. В режиме реплея возвращает domain.ErrReplayOnly.
	SubmitIntent(intent domain.Intent) error

	// ReportFingerprint сообщает источнику отпечаток состояния после
	// применения хода turnNumber. В режиме реплея несовпадение с
	// архивным хешем возвращается как *domain.DesyncError.
	ReportFingerprint(turnNumber uint64, hash uint64) error

	// TurnComplete подтверждает, что ход turnNumber полностью применен.
	// До подтверждения источник не выдает следующий ход.
	TurnComplete(turnNumber uint64)

	// Close останавливает источник. Для удаленного варианта рвет
	// соединение; архивирования не делает.
	Close() error
}

// Hooks - колбэки для структурных событий, которые ядро не чинит само.
// Все колбэки опциональны и зовутся не больше чем из одной горутины
// источника за раз.
type Hooks struct {
	// OnDesync - обнаружено расхождение отпечатков.
	OnDesync func(err *domain.DesyncError)

	// OnEnd - партия завершилась (winner получен, запись исчерпана
	// или вызван End). Запись уже заархивирована, если было чем.
	OnEnd func(record *domain.GameRecord)

	// OnFatal - невосстановимая ошибка удаленного варианта
	// (отказ в подключении, сообщение error от сервера).
	OnFatal func(err error)
}

// Archiver - контракт записи полной истории партии.
// Реализации живут в internal/infrastructure/storage.
type Archiver interface {
	Save(record *domain.GameRecord) error
}
