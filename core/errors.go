package core

// DomainError 是领域层的统一错误类型。
//
// 错误分类（对应 serving 端的降级策略）：
//   - NOT_FOUND：冷启动查询（商品/门店/向量未见过）——调用方降级为 0 值，不向上抛
//   - INVALID_INPUT：请求或离线语料格式问题——离线致命，在线降级为兜底列表
//   - UNAVAILABLE：外部模型/存储不可用——在线降级为兜底列表
//   - INTERNAL_ERROR：其余内部错误
type DomainError struct {
	Code    string
	Message string
	Module  string // index / feature / model / store / dataset / recommend
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError 创建新的领域错误。
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{Module: module, Code: code, Message: message}
}

// GetDomainError 获取 DomainError，如果不是则返回 nil。
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// 错误代码常量
const (
	ErrorCodeNotFound      = "NOT_FOUND"
	ErrorCodeNotSupported  = "NOT_SUPPORTED"
	ErrorCodeUnavailable   = "UNAVAILABLE"
	ErrorCodeInvalidInput  = "INVALID_INPUT"
	ErrorCodeInternalError = "INTERNAL_ERROR"
)

// 模块名称常量
const (
	ModuleStore     = "store"
	ModuleIndex     = "index"
	ModuleFeature   = "feature"
	ModuleModel     = "model"
	ModuleDataset   = "dataset"
	ModuleRecommend = "recommend"
)

// IsNotFound 检查错误是否为 NOT_FOUND（冷启动类查询）。
func IsNotFound(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

// IsInvalidInput 检查错误是否为 INVALID_INPUT。
func IsInvalidInput(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeInvalidInput
	}
	return false
}

// IsUnavailable 检查错误是否为 UNAVAILABLE。
func IsUnavailable(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeUnavailable
	}
	return false
}
