package activity

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"game-gen-ai-api/internal/domain/entity"
	"game-gen-ai-api/internal/workflow/node"
)

// requiredFields 顶层必填字段，按检查顺序排列；第一个缺失即失败
var requiredFields = []string{
	"id", "title", "description", "type", "difficulty", "category",
	"estimatedTime", "config", "content", "scoring", "ui",
}

// objectFields 必须是 JSON 对象的顶层字段
var objectFields = []string{"config", "content", "scoring", "ui"}

// requiredScoringFields scoring 内的必填字段
var requiredScoringFields = []string{"maxScore", "pointsPerCorrect"}

var activityIDPattern = regexp.MustCompile(`^game-\d{8}-\d{4}$`)

// Validator 对通用节点树做 schema 校验、补默认值、钳制计分并类型化
type Validator struct {
	opts     options
	validate *validator.Validate
}

// NewValidator 创建校验器，可并发使用
func NewValidator(opts ...Option) *Validator {
	return newValidator(buildOptions(opts))
}

func newValidator(o options) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("activity_id", func(fl validator.FieldLevel) bool {
		return activityIDPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("register activity_id validation: %v", err))
	}
	return &Validator{opts: o, validate: v}
}

// Validate 校验根节点。返回类型化的活动和内容警告；schema 违规时返回诊断。
// 会原地写入默认值与钳制结果，调用方不应复用该节点树。
func (v *Validator) Validate(root *node.Node) (*entity.Activity, []*Diagnostic, *Diagnostic) {
	if !root.IsMapping() {
		kind := "nothing"
		if root != nil {
			kind = root.Kind.String()
		}
		return nil, nil, v.schemaError("", fmt.Sprintf("top-level value must be an object, got %s", kind), root)
	}

	for _, f := range requiredFields {
		n, ok := root.Get(f)
		if !ok {
			return nil, nil, v.schemaError(f, "missing required field: "+f, root)
		}
		if n.Kind == node.KindNull {
			return nil, nil, v.schemaError(f, "required field "+f+" must not be null", root)
		}
	}
	for _, f := range objectFields {
		n, _ := root.Get(f)
		if !n.IsMapping() {
			return nil, nil, v.schemaError(f, fmt.Sprintf("field %s must be an object, got %s", f, n.Kind), n)
		}
	}
	scoring, _ := root.Get("scoring")
	for _, f := range requiredScoringFields {
		n, ok := scoring.Get(f)
		if !ok {
			return nil, nil, v.schemaError(fieldPath("scoring", f), "missing required field: scoring."+f, scoring)
		}
		if n.Kind == node.KindNull {
			return nil, nil, v.schemaError(fieldPath("scoring", f), "required field scoring."+f+" must not be null", scoring)
		}
	}

	v.applyDefaults(root)

	for _, ev := range ClampScoring(scoring) {
		v.opts.logger.Warn("clamping scoring value",
			"field", ev.Field, "from", ev.From, "to", ev.To)
		observeClamp(ev.Field)
	}

	typeNode, _ := root.Get("type")
	if typeNode.Kind != node.KindString {
		return nil, nil, v.schemaError("type", fmt.Sprintf("field type must be a string, got %s", typeNode.Kind), typeNode)
	}
	activityType := entity.ActivityType(typeNode.Str)

	content, _ := root.Get("content")
	variant, warnings := v.validateContent(activityType, content)

	act := entity.NewActivity()
	if err := decodeNode(root, act); err != nil {
		field, msg := describeDecodeError(err)
		return nil, nil, v.schemaError(field, msg, root)
	}
	if err := v.validate.Struct(act); err != nil {
		field, msg := describeValidationError(err, "")
		return nil, nil, v.schemaError(field, msg, root)
	}
	act.Content.Variant = variant

	if v.opts.checkReferences && variant != nil {
		for _, issue := range checkReferences(variant) {
			warnings = append(warnings, v.contentWarning(issue.field, issue.message, content))
		}
	}
	return act, warnings, nil
}

// applyDefaults 只对缺失字段生效，显式给出的值不覆盖
func (v *Validator) applyDefaults(root *node.Node) {
	if !root.Has("generatedAt") {
		root.Set("generatedAt", node.NewString(v.opts.now().Format(time.RFC3339)))
	}
	if !root.Has("version") {
		root.Set("version", node.NewString(entity.DefaultVersion))
	}
}

func (v *Validator) schemaError(field, msg string, n *node.Node) *Diagnostic {
	return newDiagnostic(v.opts.excerptLimit, StageSchema, msg, nodeExcerpt(n), nil).WithField(field)
}

func (v *Validator) contentWarning(field, msg string, n *node.Node) *Diagnostic {
	return newDiagnostic(v.opts.excerptLimit, StageContentVariant, msg, nodeExcerpt(n), nil).WithField(field)
}

// decodeNode 节点树转目标结构；15.0 这类整数值先规整为整数字面量，真正的小数写入整型字段仍会失败
func decodeNode(n *node.Node, out any) error {
	node.CanonicalizeIntegers(n)
	b, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return json.NewDecoder(bytes.NewReader(b)).Decode(out)
}

func describeDecodeError(err error) (string, string) {
	var typeErr *json.UnmarshalTypeError
	if stderrors.As(err, &typeErr) {
		return typeErr.Field, fmt.Sprintf("field %s: cannot use %s as %s", typeErr.Field, typeErr.Value, typeErr.Type)
	}
	return "", err.Error()
}

// describeValidationError 取第一个约束违规；prefix 为字段路径前缀
func describeValidationError(err error, prefix string) (string, string) {
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return prefix, err.Error()
	}
	return describeFieldError(fieldErrs[0], prefix)
}

func describeFieldError(fe validator.FieldError, prefix string) (string, string) {
	path := fe.Namespace()
	if i := strings.Index(path, "."); i >= 0 {
		path = path[i+1:]
	}
	path = fieldPath(prefix, path)
	rule := fe.Tag()
	if fe.Param() != "" {
		rule += "=" + fe.Param()
	}
	return path, fmt.Sprintf("field %s violates %s (got %v)", path, rule, fe.Value())
}
