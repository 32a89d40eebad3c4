package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// ResourceFields 提供资源名/类别/命中状态字段，供镜像请求日志复用。
func ResourceFields(resource, kind string, cacheHit bool) logrus.Fields {
	return logrus.Fields{
		"resource":  resource,
		"kind":      kind,
		"cache_hit": cacheHit,
	}
}
