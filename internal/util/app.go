package util

func GetAppName() string {
	return "AutoCard"
}
