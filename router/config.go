package router

// Config APIサーバー設定
type Config struct {
	// Development 開発モードかどうか
	Development bool
	// Version サーバーバージョン
	Version string
	// Revision サーバーリビジョン
	Revision string
	// AccessLogging アクセスログを記録するかどうか
	AccessLogging bool
	// Gzipped レスポンスをGzip圧縮するかどうか
	Gzipped bool
	// Origins CORSで許可するオリジン
	Origins []string
}
