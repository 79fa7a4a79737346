// @title        EduLearn API
// @version      1.0
// @description  EduLearn 學習平台後端 API：帳號、學習資源、活動報名、AI 對話與 token 額度
// @host         localhost:8080
// @BasePath     /api
// @securityDefinitions.apikey SessionCookie
// @in cookie
// @name session
package main

import (
	"os"
)

var exitFunc = os.Exit

func main() {
	if err := newRootCmd().Execute(); err != nil {
		exitFunc(1)
	}
}
