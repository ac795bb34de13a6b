package export

import "strings"

// Device is the platform a calendar file will be imported on
type Device string

const (
	DeviceIOS     Device = "ios"
	DeviceAndroid Device = "android"
	DeviceDesktop Device = "desktop"
)

// DetectDevice classifies a User-Agent header.
func DetectDevice(userAgent string) Device {
	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "iphone"), strings.Contains(ua, "ipad"), strings.Contains(ua, "ipod"):
		return DeviceIOS
	case strings.Contains(ua, "android"):
		return DeviceAndroid
	default:
		return DeviceDesktop
	}
}

// Instructions returns import steps for device.
func Instructions(device Device) string {
	switch device {
	case DeviceIOS:
		return "1. 下载完成后，点击文件\n2. 选择\"导入到日历\"\n3. 选择要导入的日历\n4. 点击\"导入\"完成同步"
	case DeviceAndroid:
		return "1. 下载完成后，打开文件管理器\n2. 找到下载的.ics文件\n3. 点击文件，选择日历应用打开\n4. 确认导入到日历"
	case DeviceDesktop:
		return "1. 下载完成后，找到.ics文件\n2. 双击文件或拖拽到日历应用\n3. 确认导入设置\n4. 完成同步到本地日历"
	default:
		return "请将下载的.ics文件导入到您的日历应用中"
	}
}
