// models содержит доменные сущности digest-proxy.
// Формы повторяют JSON-диалект Google Reader API (camelCase),
// поскольку прокси отдаёт элементы апстрима без перекодирования имён.
package models

// Category — метка подписки у апстрима.
type Category struct {
	// ID — полный идентификатор метки, например "user/-/label/favs".
	ID string `json:"id"`
	// Label — человекочитаемое имя метки; по нему выполняется фильтрация.
	Label string `json:"label"`
}

// Subscription — описание подписки, как его отдаёт subscription/list.
//
// Снимок не персистится: список загружается заново на каждый cache miss.
type Subscription struct {
	// ID — идентификатор ленты в формате апстрима, например "feed/123".
	ID string `json:"id"`
	// Title — название ленты.
	Title string `json:"title"`
	// URL — адрес самой ленты (xml).
	URL string `json:"url,omitempty"`
	// HTMLURL — адрес сайта-источника.
	HTMLURL string `json:"htmlUrl"`
	// IconURL — адрес фавиконки.
	IconURL string `json:"iconUrl"`
	// Categories — метки, назначенные подписке.
	Categories []Category `json:"categories"`
}

// SubscriptionList — корневой объект ответа subscription/list?output=json.
type SubscriptionList struct {
	Subscriptions []Subscription `json:"subscriptions"`
}

// Link — элемент alternate/canonical у статьи.
type Link struct {
	Href string `json:"href"`
	Type string `json:"type,omitempty"`
}

// Content — обёртка над телом статьи (summary/content).
type Content struct {
	Content string `json:"content"`
}

// Item — одна статья из stream/contents.
//
// Особенности:
//   - Published — единственный ключ сортировки; при отсутствии у апстрима
//     остаётся нулём и статья уходит в конец дайджеста;
//   - Feed* — денормализованные поля владеющей подписки; заполняются
//     только в плоском режиме дайджеста перед слиянием.
type Item struct {
	// ID — идентификатор статьи у апстрима.
	ID string `json:"id"`
	// Title — заголовок статьи.
	Title string `json:"title"`
	// Published — unix-время публикации (сек).
	Published int64 `json:"published"`
	// Updated — unix-время обновления (сек).
	Updated int64 `json:"updated,omitempty"`
	// Author — автор, если апстрим его знает.
	Author string `json:"author,omitempty"`
	// Summary — краткое содержимое статьи.
	Summary *Content `json:"summary,omitempty"`
	// Alternate — ссылки на материал.
	Alternate []Link `json:"alternate,omitempty"`
	// Categories — полные идентификаторы меток статьи.
	Categories []string `json:"categories,omitempty"`

	// FeedID/FeedTitle/FeedHTMLURL/FeedIconURL — контекст владеющей ленты,
	// позволяющий глобально сортировать плоский список без потери источника.
	FeedID      string `json:"feedId,omitempty"`
	FeedTitle   string `json:"feedTitle,omitempty"`
	FeedHTMLURL string `json:"feedHtmlUrl,omitempty"`
	FeedIconURL string `json:"feedIconUrl,omitempty"`
}

// ItemList — корневой объект ответа stream/contents.
type ItemList struct {
	Items []Item `json:"items"`
}

// FeedResult — результат по одной ленте в сгруппированном режиме.
// Присутствует и при неуспехе: Items пуст, Error непустой.
type FeedResult struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	HTMLURL string `json:"htmlUrl"`
	IconURL string `json:"iconUrl"`
	Items   []Item `json:"items"`
	Error   string `json:"error,omitempty"`
}

// DigestResponse — ответ GET /digest.
// TotalItems — длина полной слитой последовательности, не среза:
// клиент может листать страницы, пока запись в кэше тёплая.
type DigestResponse struct {
	Items      []Item `json:"items"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	TotalItems int    `json:"totalItems"`
}

// LatestResponse — ответ GET /all-latest.
// TotalFeeds — число отфильтрованных лент до пагинации.
type LatestResponse struct {
	Feeds      []FeedResult `json:"feeds"`
	Page       int          `json:"page"`
	Limit      int          `json:"limit"`
	TotalFeeds int          `json:"totalFeeds"`
}
