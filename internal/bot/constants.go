package bot

// USER-FACING TEXTS

const (
	msgHelp = "Вы можете управлять мной, отправляя эти команды:\n" +
		"\n/register - Зарегистрироваться в системе" +
		"\n/find - Найти товар" +
		"\n/orders - Показать список заказов" +
		"\n/status - Узнать статус заказа" +
		"\n/debts - Показать задолженности" +
		"\n/promos - Вывести действующие акции" +
		"\n/price - Скачать прайс" +
		"\n/doc - Получить документ"

	msgChooseSearch       = "Выберите способ поиска:"
	msgChooseDocument     = "Выберите вид документа:"
	msgEnterOrderNumber   = "Введите номер заказа"
	msgInvalidOrderNumber = "Некорректный номер заказа. Введите номер заказа цифрами"
	msgEnterEmail         = "Введите email"
	msgWrongCode          = "Неверный код"
	msgProcessing         = "Пожалуйста, подождите, я обрабатываю Ваш запрос..."
	msgSomethingWrong     = "Упс... Что-то пошло не так"
	msgBackendStatus      = "Ошибка %d"
)
