package render

const terrainVertexShader = `
#version 330
in vec3 vertexPosition;
in vec2 vertexTexCoord;
in vec3 vertexNormal;

uniform mat4 mvp;
uniform mat4 matModel;

out vec2 fragTexCoord;
out vec3 fragNormal;
out vec3 fragWorldPos;

void main() {
    fragTexCoord = vertexTexCoord;
    fragNormal = vertexNormal;
    fragWorldPos = (matModel * vec4(vertexPosition, 1.0)).xyz;
    gl_Position = mvp * vec4(vertexPosition, 1.0);
}
`

const terrainFragmentShader = `
#version 330
in vec2 fragTexCoord;
in vec3 fragNormal;
in vec3 fragWorldPos;

uniform sampler2D texture0;
uniform vec4 colDiffuse;
uniform vec3 camPos;
uniform float fogStart;
uniform float fogEnd;

out vec4 finalColor;

const vec3 sunDir = normalize(vec3(0.4, 1.0, 0.25));
const vec3 skyColor = vec3(0.53, 0.74, 0.92);

void main() {
    // UV em voxels: fract repete a textura em cada voxel do quad
    vec4 texel = texture(texture0, fract(fragTexCoord));

    float diffuse = max(dot(normalize(fragNormal), sunDir), 0.0);
    vec3 color = texel.rgb * colDiffuse.rgb * (0.45 + 0.55 * diffuse);

    float dist = distance(fragWorldPos, camPos);
    float fog = clamp((dist - fogStart) / max(fogEnd - fogStart, 0.001), 0.0, 1.0);

    finalColor = vec4(mix(color, skyColor, fog), 1.0);
}
`
