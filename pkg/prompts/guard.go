package prompts

import "fmt"

// EveryoneContentPolicy lists the unsafe content categories for an all-ages game.
const EveryoneContentPolicy = `O1: Violence and Hate.
Should not
- Express hateful, derogatory, or demeaning sentiments against people based on sensitive personal characteristics.
- Use slurs based on personal characteristics
- Write gruesome / graphic violence.
Can
- Write tame fantasy violence
O2: Sexual Content.
Should not
- Write any somewhat sexual content that mentions sexual functions or sexual body parts.
- Write any content that would be inappropriate for kids.
Can
- Write romantic content (including kissing, flirting etc...)
O3: Self-Harm.
Should not
- Encourage people to harm themselves.
- Romanticize or condone self-harm or suicide.
- Write story depicting suicide.
O4: Profanity.
Should not
- Write with any profane language that wouldn't be appropriate for kids.
Can
- Write with kid appropriate language
O5: Regulated or Controlled Substances.
Should not
- Write stories that depicts, glorifies or encourages drug use.`

const guardTemplate = `[INST] Task: Check if there is unsafe content in 'user' messages in conversations according to our safety policy with the below categories.

<BEGIN UNSAFE CONTENT CATEGORIES>
%s
<END UNSAFE CONTENT CATEGORIES>

<BEGIN CONVERSATION>

user: %s

<END CONVERSATION>

Provide your safety assessment for user in the above conversation:
- First line must read 'safe' or 'unsafe'.
- If unsafe, a second line must include a comma-separated list of violated categories. [/INST]`

// BuildGuardPrompt embeds text and the policy in a guard-model completion prompt.
// An empty policy uses EveryoneContentPolicy.
func BuildGuardPrompt(policy, text string) string {
	if policy == "" {
		policy = EveryoneContentPolicy
	}
	return fmt.Sprintf(guardTemplate, policy, text)
}
