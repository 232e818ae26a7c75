package catalog

const mediaFields = `
	id
	idMal
	type
	format
	status
	season
	seasonYear
	episodes
	chapters
	synonyms
	title { romaji english native userPreferred }
	coverImage { large }
`

const searchQuery = `query ($search: String, $type: MediaType, $page: Int, $perPage: Int) {
  Page(page: $page, perPage: $perPage) {
    media(search: $search, type: $type, sort: SEARCH_MATCH) {` + mediaFields + `}
  }
}`

const byIDQuery = `query ($id: Int) {
  Media(id: $id) {` + mediaFields + `}
}`

const seasonalQuery = `query ($type: MediaType, $page: Int, $perPage: Int, $season: MediaSeason, $seasonYear: Int, $nextSeason: MediaSeason, $nextYear: Int) {
  trending: Page(page: $page, perPage: $perPage) {
    media(type: $type, sort: TRENDING_DESC, isAdult: false) {` + mediaFields + `}
  }
  season: Page(page: $page, perPage: $perPage) {
    media(type: $type, season: $season, seasonYear: $seasonYear, sort: POPULARITY_DESC, isAdult: false) {` + mediaFields + `}
  }
  nextSeason: Page(page: $page, perPage: $perPage) {
    media(type: $type, season: $nextSeason, seasonYear: $nextYear, sort: POPULARITY_DESC, isAdult: false) {` + mediaFields + `}
  }
  popular: Page(page: $page, perPage: $perPage) {
    media(type: $type, sort: POPULARITY_DESC, isAdult: false) {` + mediaFields + `}
  }
  top: Page(page: $page, perPage: $perPage) {
    media(type: $type, sort: SCORE_DESC, isAdult: false) {` + mediaFields + `}
  }
}`
