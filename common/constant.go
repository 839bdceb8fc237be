package common

// 运行环境
const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)
