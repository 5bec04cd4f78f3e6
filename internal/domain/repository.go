package domain

// CartRepository описывает контракт хранилища корзин. Ему соответствуют
// durable-бэкенд (авторизованные пользователи) и ephemeral-бэкенд
// (анонимные сессии); движок корзины работает с обоими одинаково.
type CartRepository interface {
	// Load возвращает корзину владельца или ErrCartNotFound, если её нет.
	Load(owner OwnerKey) (Cart, error)
	// Save сохраняет корзину целиком с учётом optimistic locking по Version:
	// Version=0 создаёт запись, иначе требует совпадения сохранённой версии
	// и возвращает ErrCartVersionConflict при lost update.
	Save(cart Cart) error
	// Clear опустошает корзину владельца. Повторный Clear — no-op.
	Clear(owner OwnerKey) error
}

// OrderRepository — append-only история заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ. Повторная запись того же ID — ошибка.
	Create(order Order) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound.
	Get(id string) (Order, error)
	// ListByOwner возвращает заказы владельца от новых к старым,
	// с опциональным ограничением на количество.
	ListByOwner(owner OwnerKey, limit int) ([]Order, error)
}

// ProductCatalog — read-only витрина каталога, из которой движок корзины
// берёт снапшоты при добавлении позиций.
type ProductCatalog interface {
	// Get возвращает товар по идентификатору или ErrProductNotFound.
	Get(id string) (Product, error)
	// List возвращает все товары витрины.
	List() ([]Product, error)
}
