package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SongFixtures is a two-song catalog in the song data layout.
var SongFixtures = map[string]string{
	"A/A/A/TRAAAAW128F429D538.json": `{"num_songs": 1, "artist_id": "ARJNIUY12298900C91", "artist_latitude": null, "artist_longitude": null, "artist_location": "", "artist_name": "Grimes", "song_id": "SOAAAQN12AB01856D3", "title": "Oblivion", "duration": 242.0, "year": 2012}`,
	"A/A/B/TRAABJL12903CDCF1A.json": `{"num_songs": 1, "artist_id": "ARD7TVE1187B99BFB1", "artist_latitude": 35.14968, "artist_longitude": -90.04892, "artist_location": "California - LA", "artist_name": "Casual", "song_id": "SOMZWCG12A8C13C480", "title": "I Didn't Mean To", "duration": 218.93179, "year": 0}`,
}

// LogFixtures holds five events, three of them NextSong plays. Two plays
// match the catalog and one does not.
var LogFixtures = map[string]string{
	"2018/11/2018-11-01-events.json": `{"artist": null, "auth": "Logged In", "firstName": "Walter", "gender": "M", "itemInSession": 0, "lastName": "Frye", "length": null, "level": "free", "location": "San Francisco-Oakland-Hayward, CA", "method": "GET", "page": "Home", "registration": 1540919166796.0, "sessionId": 38, "song": null, "status": 200, "ts": 1541105830000, "userAgent": "Mozilla/5.0 (Macintosh)", "userId": "39"}
{"artist": "Grimes", "auth": "Logged In", "firstName": "Walter", "gender": "M", "itemInSession": 1, "lastName": "Frye", "length": 242.0, "level": "free", "location": "San Francisco-Oakland-Hayward, CA", "method": "PUT", "page": "NextSong", "registration": 1540919166796.0, "sessionId": 38, "song": "Oblivion", "status": 200, "ts": 1541105830796, "userAgent": "Mozilla/5.0 (Macintosh)", "userId": "39"}
{"artist": "Des'ree", "auth": "Logged In", "firstName": "Kaylee", "gender": "F", "itemInSession": 0, "lastName": "Summers", "length": 246.30812, "level": "free", "location": "Phoenix-Mesa-Scottsdale, AZ", "method": "PUT", "page": "NextSong", "registration": 1540344794796.0, "sessionId": 139, "song": "You Gotta Be", "status": 200, "ts": 1541106106796, "userAgent": "Mozilla/5.0 (Windows NT 6.1)", "userId": "8"}
`,
	"2018/11/2018-11-02-events.json": `{"artist": "Grimes", "auth": "Logged In", "firstName": "Walter", "gender": "M", "itemInSession": 2, "lastName": "Frye", "length": 242.0, "level": "paid", "location": "San Francisco-Oakland-Hayward, CA", "method": "PUT", "page": "NextSong", "registration": 1540919166796.0, "sessionId": 52, "song": "Oblivion", "status": 200, "ts": 1541190000000, "userAgent": "Mozilla/5.0 (Macintosh)", "userId": "39"}
{"artist": null, "auth": "Logged In", "firstName": "Kaylee", "gender": "F", "itemInSession": 1, "lastName": "Summers", "length": null, "level": "free", "location": "Phoenix-Mesa-Scottsdale, AZ", "method": "PUT", "page": "Logout", "registration": 1540344794796.0, "sessionId": 139, "song": null, "status": 307, "ts": 1541106107796, "userAgent": "Mozilla/5.0 (Windows NT 6.1)", "userId": "8"}
`,
}

// WriteFixtures writes files (relative path to content) below a new temp
// directory and returns it.
func WriteFixtures(t testing.TB, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create fixture dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content+"\n"), 0o644); err != nil {
			t.Fatalf("failed to write fixture: %v", err)
		}
	}
	return root
}
