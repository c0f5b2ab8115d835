package memory

import "gallery-server/core"

var samplePictures = []core.Picture{
	{ID: 1, Author: "Алексей Петров", URL: "https://picsum.photos/300?1"},
	{ID: 2, Author: "Мария Зеленоградская", URL: "https://picsum.photos/300?2"},
	{ID: 3, Author: "Дмитрий Ковыркин", URL: "https://picsum.photos/300?3"},
	{ID: 4, Author: "Ольга Шляпина", URL: "https://picsum.photos/300?4"},
	{ID: 5, Author: "Сергей Коковин", URL: "https://picsum.photos/300?5"},
	{ID: 6, Author: "Екатерина Первая", URL: "https://picsum.photos/300?6"},
	{ID: 7, Author: "Иван Толстолобов", URL: "https://picsum.photos/300?7"},
}
