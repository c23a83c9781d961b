package update

// Method identifies the transport used to fetch an artifact. The set is
// extensible; callers register Checkers/Updaters against whichever methods
// they implement.
type Method string

const (
	MethodHTTP          Method = "HTTP"
	MethodHTTPSClearnet Method = "HTTPS_CLEARNET"
	MethodHTTPClearnet  Method = "HTTP_CLEARNET"
	MethodTorrent       Method = "TORRENT"
	MethodFile          Method = "FILE"
	MethodDummy         Method = "DUMMY"
)
