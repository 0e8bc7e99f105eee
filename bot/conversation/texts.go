package conversation

// User-facing texts.
const (
	TextWelcome  = `Приветствую! Я чат-бот организации ООО "Маяк", выберите нужный раздел для дальнейшей работы`
	TextHelp     = "Для начала работы с ботом используйте команду /start\nДля получения контактной информации используйте команду /contacts"
	TextContacts = "Адрес организации: 155908, Ивановская область, Шуйский район, г. Шуя, ул. Свердлова, д. 34А, кв. 25\nНомер телефона: +7 493 514-22-19"

	TextDefaultError       = "Извините, я не понял запрос. Воспользуйтесь кнопками меню или командой /start"
	TextCatalogUnavailable = "Произошла ошибка при получении категорий. Пожалуйста, повторите запрос"
	TextTemporaryFailure   = "Сервис временно недоступен. Пожалуйста, повторите запрос позже"

	TextChooseCategory = "Выберите категорию, в которой хотите найти товар"
	TextChooseService  = "Выберите раздел, по которому хотите оформить услугу"
	// TextProductsFound takes the number of products.
	TextProductsFound = "По данной категории было найдено %d позиций. Для оформления заказа выберите нужный Вам товар"

	TextRequestPhone = "Для оформления заказа поделитесь номером телефона, нажав кнопку ниже"
	TextThanks       = "Спасибо! Заявка принята, оператор свяжется с Вами в ближайшее время"
	TextSaveFailed   = "Не удалось оформить заявку. Пожалуйста, отправьте номер телефона ещё раз"
	TextCancelled    = "Заказ отменён. Чтобы начать заново, используйте команду /start"

	// CancelPhrase cancels the order from any state.
	CancelPhrase = "Отмена заказа"
)

// Button labels.
const (
	LabelProducts     = "Товары"
	LabelServices     = "Услуги"
	LabelDiagnostic   = "Диагностика"
	LabelRepair       = "Ремонт"
	LabelShareContact = "Отправить номер телефона"
)

// Commands and their menu descriptions.
const (
	CommandStart    = "/start"
	CommandHelp     = "/help"
	CommandContacts = "/contacts"

	DescriptionStart    = "Начать взаимодействие с ботом"
	DescriptionHelp     = "Помощь в пользовании чат-ботом"
	DescriptionContacts = "Информация о чат-боте"
)
