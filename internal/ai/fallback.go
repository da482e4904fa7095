// Package ai – Fallback
//
// Local replies for when no provider is configured or a provider call
// fails. Replies are chosen by keyword, then at random.
package ai

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/unicode/norm"
)

// FallbackModel labels replies produced locally.
const FallbackModel = "fallback"

// fallbackReplies are the canned assistant answers, indexed by
// keywordReplies.
var fallbackReplies = [...]string{
	"ممتاز! دعني أساعدك في تطوير هذه الفكرة. يمكننا البدء بإنشاء هيكل المشروع الأساسي.",
	"فكرة رائعة! سأقوم بتوليد الكود المطلوب مع أفضل الممارسات في البرمجة.",
	"بالطبع! يمكنني مساعدتك في تطوير هذا التطبيق باستخدام أحدث التقنيات.",
	"رائع! دعنا نبدأ بتصميم قاعدة البيانات والهيكل العام للمشروع.",
	"سأساعدك في تطوير هذا المشروع خطوة بخطوة مع شرح كل جزء.",
}

// keywordReplies is checked in order; the first rule with a matching
// keyword picks the reply index.
var keywordReplies = []struct {
	keywords []string
	reply    int
}{
	{[]string{"تطبيق", "مشروع"}, 0},
	{[]string{"كود", "برمجة"}, 1},
	{[]string{"تصميم", "واجهة"}, 3},
}

// Fallback produces replies without a provider. It is safe for concurrent
// use.
type Fallback struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewFallback seeds the random pick used when no keyword matches. A zero
// seed uses the clock.
func NewFallback(seed int64) *Fallback {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Fallback{rng: rand.New(rand.NewSource(seed))}
}

// Respond returns a canned Arabic reply for text.
func (f *Fallback) Respond(text string) string {
	text = norm.NFC.String(text)
	for _, rule := range keywordReplies {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return fallbackReplies[rule.reply]
			}
		}
	}
	f.mu.Lock()
	i := f.rng.Intn(len(fallbackReplies))
	f.mu.Unlock()
	return fallbackReplies[i]
}

// codeTemplates holds one skeleton per supported language. Each carries a
// %PROMPT% placeholder for the prompt.
var codeTemplates = map[string]string{
	"javascript": `// Generated JavaScript code for: %PROMPT%
function handleTask() {
  try {
    // Implementation here
    console.log('Task completed successfully');
    return { success: true };
  } catch (error) {
    console.error('Error:', error);
    return { success: false, error };
  }
}

export default handleTask;`,

	"python": `# Generated Python code for: %PROMPT%
def handle_task():
    """
    Implementation for the requested task
    """
    try:
        # Implementation here
        print("Task completed successfully")
        return {"success": True}
    except Exception as error:
        print(f"Error: {error}")
        return {"success": False, "error": str(error)}`,

	"typescript": `// Generated TypeScript code for: %PROMPT%
interface TaskResult {
  success: boolean;
  error?: string;
}

function handleTask(): TaskResult {
  try {
    // Implementation here
    console.log('Task completed successfully');
    return { success: true };
  } catch (error) {
    console.error('Error:', error);
    return { success: false, error: error instanceof Error ? error.message : 'Unknown error' };
  }
}

export default handleTask;`,
}

// MockCode renders the template for language with prompt embedded in its
// header comment. Unknown languages get the javascript template.
func MockCode(prompt, language string) string {
	tpl, ok := codeTemplates[strings.ToLower(strings.TrimSpace(language))]
	if !ok {
		tpl = codeTemplates["javascript"]
	}
	return strings.Replace(tpl, "%PROMPT%", prompt, 1)
}
